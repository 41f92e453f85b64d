package app

import (
	"context"

	"github.com/onlydustxyz/kiln-indexer/internal/core"
	"github.com/onlydustxyz/kiln-indexer/internal/core/repository"
)

type QueryConfig struct {
	DB *repository.DB
}

type QueryService interface {
	GetStatistics(ctx context.Context) (*core.Statistics, error)

	GetSlots(ctx context.Context, filter *core.SlotFilter, offset, limit int) ([]*core.Slot, error)
	GetBlocks(ctx context.Context, filter *core.BlockFilter, offset, limit int) ([]*core.Block, error)
	GetTransactions(ctx context.Context, filter *core.TransactionFilter, offset, limit int) ([]*core.Transaction, error)

	GetAddressNfts(ctx context.Context, addr string) (core.PackedNftTypes, error)
}
