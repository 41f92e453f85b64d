package slot

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/go-clickhouse/ch"

	"github.com/onlydustxyz/kiln-indexer/internal/core"
)

var _ core.SlotRepository = (*Repository)(nil)

type Repository struct {
	ch *ch.DB
	pg *bun.DB
}

func NewRepository(_ch *ch.DB, _pg *bun.DB) *Repository {
	return &Repository{ch: _ch, pg: _pg}
}

func CreateTables(ctx context.Context, chDB *ch.DB, pgDB *bun.DB) error {
	_, err := chDB.NewCreateTable().
		IfNotExists().
		Engine("ReplacingMergeTree").
		Model(&core.Slot{}).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "slot ch create table")
	}

	_, err = pgDB.NewCreateTable().
		Model(&core.Slot{}).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "slot pg create table")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.Slot{}).
		Using("BTREE").
		Column("height").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "slot height pg create index")
	}

	return nil
}

func (r *Repository) MaxHeight(ctx context.Context) (uint64, error) {
	last, err := r.GetLastSlot(ctx)
	if err != nil {
		return 0, err
	}
	return last.Height, nil
}

// InsertIfAbsent writes the slot, ch first and pg second. The sync
// cursor is derived from pg, so a failed ch write aborts before the
// cursor can advance past the height; a repeated ch insert is
// collapsed by ReplacingMergeTree.
func (r *Repository) InsertIfAbsent(ctx context.Context, height uint64, slot *core.Slot) (int64, error) {
	slot.Height = height

	if _, err := r.ch.NewInsert().Model(slot).Exec(ctx); err != nil {
		return 0, err
	}

	res, err := r.pg.NewInsert().Model(slot).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r *Repository) GetLastSlot(ctx context.Context) (*core.Slot, error) {
	ret := new(core.Slot)

	err := r.pg.NewSelect().Model(ret).
		Order("height DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func selectSlotFilter(q *bun.SelectQuery, f *core.SlotFilter) *bun.SelectQuery {
	if f.Height != nil {
		q = q.Where("height = ?", *f.Height)
	}
	if f.Spec != nil {
		q = q.Where("spec = ?", *f.Spec)
	}
	return q
}

func (r *Repository) GetSlots(ctx context.Context, filter *core.SlotFilter, offset, limit int) (ret []*core.Slot, err error) {
	err = selectSlotFilter(r.pg.NewSelect().Model(&ret), filter).
		Order("height DESC").
		Offset(offset).Limit(limit).Scan(ctx)
	return ret, err
}
