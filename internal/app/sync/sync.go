package sync

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/onlydustxyz/kiln-indexer/internal/app"
	"github.com/onlydustxyz/kiln-indexer/internal/core"
)

var _ app.SyncerService = (*Service[any])(nil)

// Service keeps an entry store synced with the head of a node.
// One instance owns one node/store pairing; passes within an instance
// are strictly sequential.
type Service[E any] struct {
	cfg *app.SyncConfig[E]

	// consumed by the first pass, nil afterwards
	from *uint64
}

func NewService[E any](cfg *app.SyncConfig[E]) (*Service[E], error) {
	if cfg.Interval <= 0 {
		return nil, errors.Errorf("%s: non-positive sync interval %s", cfg.Name, cfg.Interval)
	}
	if cfg.Node == nil {
		return nil, errors.Errorf("%s: nil node client", cfg.Name)
	}
	if cfg.Store == nil {
		return nil, errors.Errorf("%s: nil entry store", cfg.Name)
	}

	return &Service[E]{cfg: cfg, from: cfg.FromHeight}, nil
}

// startHeight resolves where the next pass begins: the one-time
// FromHeight override if still unconsumed, otherwise the store
// cursor plus one, otherwise 0 on an empty store.
func (s *Service[E]) startHeight(ctx context.Context) (uint64, error) {
	if s.from != nil {
		from := *s.from
		s.from = nil
		return from, nil
	}

	max, err := s.cfg.Store.MaxHeight(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, &core.StorageError{Err: errors.Wrap(err, "get store height")}
	}

	return max + 1, nil
}

// Pass executes one reconciliation pass: it backfills every height
// between the resolved start and the node head, in order, and returns
// the head. It aborts on the first failure; heights persisted before
// the failure stay committed, so the next pass resumes from the store
// cursor without extra bookkeeping.
func (s *Service[E]) Pass(ctx context.Context) (uint64, error) {
	defer core.Timer(time.Now(), "pass(%s)", s.cfg.Name)

	from, err := s.startHeight(ctx)
	if err != nil {
		return 0, err
	}

	head, err := s.cfg.Node.HeadHeight(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "get node height")
	}

	if from == head {
		return head, nil
	}

	log.Info().Str("syncer", s.cfg.Name).Uint64("from", from).Uint64("to", head).Msg("bumping store to node head")

	for height := from; height <= head; height++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		entry, err := s.cfg.Node.EntryAt(ctx, height)
		if err != nil {
			return 0, errors.Wrapf(err, "fetch entry at %d", height)
		}

		rows, err := s.cfg.Store.InsertIfAbsent(ctx, height, entry)
		if err != nil {
			return 0, &core.StorageError{Err: errors.Wrapf(err, "insert entry at %d", height)}
		}

		entriesSaved.WithLabelValues(s.cfg.Name).Inc()
		headHeight.WithLabelValues(s.cfg.Name).Set(float64(height))

		log.Info().Str("syncer", s.cfg.Name).Uint64("height", height).Int64("rows", rows).Msg("saved entry")
	}

	return head, nil
}

// Run drives Pass on the configured interval until ctx is cancelled.
// A pass failure never stops the loop; the next tick retries from the
// store cursor. Ticks never overlap: the next pass is scheduled only
// after the previous one returned.
func (s *Service[E]) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		start := time.Now()

		head, err := s.Pass(ctx)
		passDuration.WithLabelValues(s.cfg.Name).Observe(time.Since(start).Seconds())

		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		case err != nil:
			passes.WithLabelValues(s.cfg.Name, failureClass(err)).Inc()
			log.Warn().Err(err).Str("syncer", s.cfg.Name).Msg("failed to bump up to head")
		default:
			passes.WithLabelValues(s.cfg.Name, "ok").Inc()
			headHeight.WithLabelValues(s.cfg.Name).Set(float64(head))
			log.Info().Str("syncer", s.cfg.Name).Uint64("head", head).Msg("store synced up to node")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// failureClass maps a pass failure to its metric label.
func failureClass(err error) string {
	var storageErr *core.StorageError

	switch {
	case errors.Is(err, core.ErrNothingAtHeight):
		return "nothing_at_height"
	case errors.Is(err, core.ErrPendingBlock):
		return "pending_block"
	case errors.As(err, &storageErr):
		return "storage"
	default:
		return "transport"
	}
}
