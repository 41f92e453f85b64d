package node

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/uptrace/bun/extra/bunbig"

	"github.com/onlydustxyz/kiln-indexer/internal/app"
	"github.com/onlydustxyz/kiln-indexer/internal/core"
	"github.com/onlydustxyz/kiln-indexer/lru"
)

// entryCacheSize bounds the blocks kept around for retried passes.
const entryCacheSize = 64

var _ app.NodeClient[*core.Block] = (*ExecutionClient)(nil)

// rpcBlock mirrors the eth_getBlockByNumber response.
// A pending block comes back with null number and hash.
type rpcBlock struct {
	Number       *hexutil.Big     `json:"number"`
	Hash         *common.Hash     `json:"hash"`
	ParentHash   common.Hash      `json:"parentHash"`
	Timestamp    hexutil.Uint64   `json:"timestamp"`
	Transactions []rpcTransaction `json:"transactions"`
}

type rpcTransaction struct {
	Hash  common.Hash     `json:"hash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Input hexutil.Bytes   `json:"input"`
	Gas   hexutil.Uint64  `json:"gas"`
}

// ExecutionClient reads blocks and transactions from an execution
// layer node over JSON-RPC.
type ExecutionClient struct {
	client *rpc.Client

	// entries fetched but not yet consumed, so a pass retried after a
	// partial failure does not hit the node again
	cache *lru.Cache[uint64, *core.Block]
}

func NewExecutionClient(ctx context.Context, url string) (*ExecutionClient, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "dial execution node %s", url)
	}

	return &ExecutionClient{
		client: client,
		cache:  lru.New[uint64, *core.Block](entryCacheSize),
	}, nil
}

func (c *ExecutionClient) HeadHeight(ctx context.Context) (uint64, error) {
	var head hexutil.Uint64

	if err := c.client.CallContext(ctx, &head, "eth_blockNumber"); err != nil {
		return 0, errors.Wrap(err, "get block number")
	}

	return uint64(head), nil
}

func (c *ExecutionClient) EntryAt(ctx context.Context, height uint64) (*core.Block, error) {
	if b, ok := c.cache.Get(height); ok {
		c.cache.Delete(height) // consumed by the retried pass
		return b, nil
	}

	var raw *rpcBlock

	err := c.client.CallContext(ctx, &raw, "eth_getBlockByNumber", hexutil.Uint64(height), true)
	if err != nil {
		return nil, errors.Wrapf(err, "get block %d", height)
	}
	if raw == nil {
		return nil, errors.Wrapf(core.ErrNothingAtHeight, "height %d", height)
	}
	if raw.Number == nil || raw.Hash == nil {
		return nil, errors.Wrapf(core.ErrPendingBlock, "height %d", height)
	}

	b := mapBlock(raw)
	c.cache.Put(height, b)

	return b, nil
}

func mapBlock(raw *rpcBlock) *core.Block {
	b := &core.Block{
		Height:     raw.Number.ToInt().Uint64(),
		Hash:       raw.Hash.Bytes(),
		ParentHash: raw.ParentHash.Bytes(),
		MinedAt:    time.Unix(int64(raw.Timestamp), 0).UTC(),
		ScannedAt:  time.Now().UTC(),
	}

	for i := range raw.Transactions {
		b.Transactions = append(b.Transactions, mapTransaction(b.Height, &raw.Transactions[i]))
	}

	return b
}

func mapTransaction(height uint64, raw *rpcTransaction) *core.Transaction {
	tx := &core.Transaction{
		Hash:        raw.Hash.Bytes(),
		BlockHeight: height,
		FromAddress: strings.ToLower(raw.From.Hex()),
		Input:       raw.Input,
		Gas:         uint64(raw.Gas),
	}
	if raw.To != nil {
		tx.ToAddress = strings.ToLower(raw.To.Hex())
	}
	if raw.Value != nil {
		tx.Value = bunbig.FromMathBig((*big.Int)(raw.Value))
	}

	return tx
}
