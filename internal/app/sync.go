package app

import (
	"context"
	"time"
)

// NodeClient reads the source chain: its current head height and the
// entry at a given height.
type NodeClient[E any] interface {
	// HeadHeight returns the highest height the node currently reports.
	HeadHeight(ctx context.Context) (uint64, error)
	// EntryAt fetches the entry at the given height. Returns an error
	// wrapping core.ErrNothingAtHeight when the node has no data there
	// and core.ErrPendingBlock when the data is not final yet.
	EntryAt(ctx context.Context, height uint64) (E, error)
}

// EntryStore persists fetched entries at their height.
type EntryStore[E any] interface {
	// MaxHeight returns the highest persisted height,
	// core.ErrNotFound on an empty store.
	MaxHeight(ctx context.Context) (uint64, error)
	// InsertIfAbsent writes the entry unless its height is already known.
	// Re-inserting an existing height is a no-op reported as 0 rows,
	// existing entries are never updated.
	InsertIfAbsent(ctx context.Context, height uint64, entry E) (int64, error)
}

type SyncConfig[E any] struct {
	// Name tags logs and metrics of one syncer instance.
	Name string

	Node  NodeClient[E]
	Store EntryStore[E]

	// FromHeight overrides the store cursor on the very first pass only.
	// Subsequent passes always resolve from the store.
	FromHeight *uint64

	// Interval between two passes, must be positive.
	Interval time.Duration
}

type SyncerService interface {
	// Run keeps the store synced with the node head until ctx is cancelled.
	Run(ctx context.Context) error
}
