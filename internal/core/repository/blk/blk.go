package blk

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/go-clickhouse/ch"

	"github.com/onlydustxyz/kiln-indexer/internal/core"
)

var (
	_ core.BlockRepository       = (*Repository)(nil)
	_ core.TransactionRepository = (*Repository)(nil)
)

type Repository struct {
	ch *ch.DB
	pg *bun.DB
}

func NewRepository(_ch *ch.DB, _pg *bun.DB) *Repository {
	return &Repository{ch: _ch, pg: _pg}
}

func createIndexes(ctx context.Context, pgDB *bun.DB) error {
	_, err := pgDB.NewCreateIndex().
		Model(&core.Transaction{}).
		Using("HASH").
		Column("from_address").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction from address pg create index")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.Transaction{}).
		Using("HASH").
		Column("to_address").
		Where("length(to_address) > 0").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction to address pg create index")
	}

	_, err = pgDB.NewCreateIndex().
		Model(&core.Transaction{}).
		Using("BTREE").
		Column("block_height").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction block height pg create index")
	}

	return nil
}

func CreateTables(ctx context.Context, chDB *ch.DB, pgDB *bun.DB) error {
	_, err := chDB.NewCreateTable().
		IfNotExists().
		Engine("ReplacingMergeTree").
		Model(&core.Block{}).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "block ch create table")
	}

	_, err = pgDB.NewCreateTable().
		Model(&core.Block{}).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "block pg create table")
	}

	_, err = chDB.NewCreateTable().
		IfNotExists().
		Engine("ReplacingMergeTree").
		Model(&core.Transaction{}).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction ch create table")
	}

	_, err = pgDB.NewCreateTable().
		Model(&core.Transaction{}).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "transaction pg create table")
	}

	return createIndexes(ctx, pgDB)
}

func (r *Repository) MaxHeight(ctx context.Context) (uint64, error) {
	last, err := r.GetLastBlock(ctx)
	if err != nil {
		return 0, err
	}
	return last.Height, nil
}

// InsertIfAbsent writes the block and its transactions, ch first and
// pg second. The sync cursor is derived from pg, so a failed ch write
// aborts before the cursor can advance past the height; a repeated ch
// insert is collapsed by ReplacingMergeTree. The pg side goes in one
// transaction checked out per call, never across heights.
func (r *Repository) InsertIfAbsent(ctx context.Context, height uint64, block *core.Block) (int64, error) {
	block.Height = height
	for _, t := range block.Transactions {
		t.BlockHeight = height
	}

	if _, err := r.ch.NewInsert().Model(block).Exec(ctx); err != nil {
		return 0, err
	}
	if len(block.Transactions) > 0 {
		if _, err := r.ch.NewInsert().Model(&block.Transactions).Exec(ctx); err != nil {
			return 0, err
		}
	}

	dbTx, err := r.pg.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	res, err := dbTx.NewInsert().Model(block).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		_ = dbTx.Rollback()
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		_ = dbTx.Rollback()
		return 0, err
	}
	if rows == 0 {
		// height already synced, existing entries are not updated
		_ = dbTx.Rollback()
		return 0, nil
	}

	if len(block.Transactions) > 0 {
		_, err = dbTx.NewInsert().Model(&block.Transactions).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			_ = dbTx.Rollback()
			return 0, err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, err
	}

	return rows, nil
}

func (r *Repository) GetLastBlock(ctx context.Context) (*core.Block, error) {
	ret := new(core.Block)

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

func selectBlockFilter(q *bun.SelectQuery, f *core.BlockFilter) *bun.SelectQuery {
	if f.WithTransactions {
		q = q.Relation("Transactions")
	}
	if f.Height != nil {
		q = q.Where("block.height = ?", *f.Height)
	}
	return q
}

func (r *Repository) GetBlocks(ctx context.Context, filter *core.BlockFilter, offset, limit int) (ret []*core.Block, err error) {
	err = selectBlockFilter(r.pg.NewSelect().Model(&ret), filter).
		Order("block.height DESC").
		Offset(offset).Limit(limit).Scan(ctx)
	return ret, err
}

func (r *Repository) ListFromAddress(ctx context.Context, addr string) (ret []*core.Transaction, err error) {
	err = r.pg.NewSelect().Model(&ret).
		Where("from_address = ?", addr).
		Order("block_height ASC").
		Scan(ctx)
	return ret, err
}

func selectTxFilter(q *bun.SelectQuery, f *core.TransactionFilter) *bun.SelectQuery {
	if len(f.Hash) > 0 {
		q = q.Where("hash = ?", f.Hash)
	}
	if f.BlockHeight != nil {
		q = q.Where("block_height = ?", *f.BlockHeight)
	}
	if f.FromAddress != "" {
		q = q.Where("from_address = ?", f.FromAddress)
	}
	if f.ToAddress != "" {
		q = q.Where("to_address = ?", f.ToAddress)
	}
	return q
}

func (r *Repository) GetTransactions(ctx context.Context, filter *core.TransactionFilter, offset, limit int) (ret []*core.Transaction, err error) {
	err = selectTxFilter(r.pg.NewSelect().Model(&ret), filter).
		Order("block_height DESC").
		Offset(offset).Limit(limit).Scan(ctx)
	return ret, err
}

func (r *Repository) CountTransactions(ctx context.Context) (int64, error) {
	n, err := r.pg.NewSelect().Model((*core.Transaction)(nil)).Count(ctx)
	return int64(n), err
}
