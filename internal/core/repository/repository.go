package repository

import (
	"context"

	"github.com/onlydustxyz/kiln-indexer/internal/core/repository/blk"
	"github.com/onlydustxyz/kiln-indexer/internal/core/repository/slot"
)

func CreateTables(ctx context.Context, db *DB) error {
	if err := slot.CreateTables(ctx, db.CH, db.PG); err != nil {
		return err
	}
	if err := blk.CreateTables(ctx, db.CH, db.PG); err != nil {
		return err
	}
	return nil
}
