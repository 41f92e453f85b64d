package core

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bunbig"
	"github.com/uptrace/go-clickhouse/ch"
)

type Transaction struct {
	ch.CHModel    `ch:"transactions,partition:block_height" json:"-"`
	bun.BaseModel `bun:"table:transactions" json:"-"`

	Hash []byte `ch:",pk" bun:"type:bytea,pk,notnull" json:"hash"`

	BlockHeight uint64 `bun:",notnull" json:"block_height"`

	FromAddress string `ch:",lc" bun:",notnull" json:"from_address"`
	// ToAddress is empty for contract deployments.
	ToAddress string `ch:",lc" json:"to_address,omitempty"`

	Value *bunbig.Int `ch:"type:UInt256" bun:"type:numeric" json:"value,omitempty"`
	Input []byte      `bun:"type:bytea" json:"input,omitempty"`
	Gas   uint64      `json:"gas"`
}

// IsDeployment reports whether the transaction creates a contract.
func (tx *Transaction) IsDeployment() bool {
	return tx.ToAddress == ""
}

// IsContractCall reports whether the transaction calls a smart contract.
// A non-empty input is the marker for a contract call.
func (tx *Transaction) IsContractCall() bool {
	return tx.ToAddress != "" && len(tx.Input) > 0
}

type TransactionFilter struct {
	Hash        []byte  `form:"-"`
	BlockHeight *uint64 `form:"block_height"`
	FromAddress string  `form:"from_address"`
	ToAddress   string  `form:"to_address"`
}

type TransactionRepository interface {
	ListFromAddress(ctx context.Context, addr string) ([]*Transaction, error)
	GetTransactions(ctx context.Context, filter *TransactionFilter, offset, limit int) ([]*Transaction, error)
	CountTransactions(ctx context.Context) (int64, error)
}
