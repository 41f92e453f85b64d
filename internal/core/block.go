package core

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/go-clickhouse/ch"
)

type Block struct {
	ch.CHModel    `ch:"blocks" json:"-"`
	bun.BaseModel `bun:"table:blocks" json:"-"`

	Height     uint64 `ch:",pk" bun:",pk,notnull" json:"height"`
	Hash       []byte `bun:"type:bytea,unique,notnull" json:"hash"`
	ParentHash []byte `bun:"type:bytea,notnull" json:"parent_hash"`

	MinedAt time.Time `json:"mined_at"`

	Transactions []*Transaction `ch:"-" bun:"rel:has-many,join:height=block_height" json:"transactions,omitempty"`

	ScannedAt time.Time `json:"scanned_at"`
}

type BlockFilter struct {
	Height *uint64 `form:"height"`

	WithTransactions bool `form:"with_transactions"`
}

type BlockRepository interface {
	// MaxHeight returns ErrNotFound on an empty table.
	MaxHeight(ctx context.Context) (uint64, error)
	// InsertIfAbsent persists a block together with its transactions in one
	// database transaction. Returns the number of inserted block rows,
	// 0 if the height is already known.
	InsertIfAbsent(ctx context.Context, height uint64, block *Block) (int64, error)
	GetLastBlock(ctx context.Context) (*Block, error)
	GetBlocks(ctx context.Context, filter *BlockFilter, offset, limit int) ([]*Block, error)
}
