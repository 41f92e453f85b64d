package core

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/go-clickhouse/ch"
)

type Slot struct {
	ch.CHModel    `ch:"slots" json:"-"`
	bun.BaseModel `bun:"table:slots" json:"-"`

	Height uint64 `ch:",pk" bun:",pk,notnull" json:"height"`
	Spec   string `ch:",lc" bun:",notnull" json:"spec"`

	BlockRoot []byte `bun:"type:bytea" json:"block_root,omitempty"`

	ValidatorsCount *uint64 `json:"validators_count,omitempty"`

	ScannedAt time.Time `json:"scanned_at"`
}

type SlotFilter struct {
	Height *uint64 `form:"height"`
	Spec   *string `form:"spec"`
}

type SlotRepository interface {
	// MaxHeight returns ErrNotFound on an empty table.
	MaxHeight(ctx context.Context) (uint64, error)
	// InsertIfAbsent returns the number of inserted rows,
	// 0 if the height is already known.
	InsertIfAbsent(ctx context.Context, height uint64, slot *Slot) (int64, error)
	GetLastSlot(ctx context.Context) (*Slot, error)
	GetSlots(ctx context.Context, filter *SlotFilter, offset, limit int) ([]*Slot, error)
}
