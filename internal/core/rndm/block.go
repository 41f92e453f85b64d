package rndm

import (
	"time"

	"github.com/uptrace/bun/extra/bunbig"

	"github.com/onlydustxyz/kiln-indexer/internal/core"
)

var blockHeight uint64 = 200000

func Block() *core.Block {
	blockHeight++

	b := &core.Block{
		Height:     blockHeight,
		Hash:       Bytes(32),
		ParentHash: Bytes(32),
		MinedAt:    time.Now().UTC().Truncate(time.Microsecond),
		ScannedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	b.Transactions = Transactions(b.Height, 3)

	return b
}

func Blocks(n int) (ret []*core.Block) {
	for i := 0; i < n; i++ {
		ret = append(ret, Block())
	}
	return ret
}

func Transaction(blockHeight uint64) *core.Transaction {
	return &core.Transaction{
		Hash:        Bytes(32),
		BlockHeight: blockHeight,
		FromAddress: Address(),
		ToAddress:   Address(),
		Value:       bunbig.FromInt64(1e9),
		Input:       nil,
		Gas:         21000,
	}
}

func Transactions(blockHeight uint64, n int) (ret []*core.Transaction) {
	for i := 0; i < n; i++ {
		ret = append(ret, Transaction(blockHeight))
	}
	return ret
}

// Deployment returns a contract creation transaction.
func Deployment(blockHeight uint64) *core.Transaction {
	tx := Transaction(blockHeight)
	tx.ToAddress = ""
	tx.Input = Bytes(64)
	return tx
}

// ContractCall returns a transaction calling the given contract.
func ContractCall(blockHeight uint64, to string) *core.Transaction {
	tx := Transaction(blockHeight)
	tx.ToAddress = to
	tx.Input = Bytes(36)
	return tx
}
