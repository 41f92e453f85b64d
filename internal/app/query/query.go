package query

import (
	"context"

	"github.com/pkg/errors"

	"github.com/onlydustxyz/kiln-indexer/internal/app"
	"github.com/onlydustxyz/kiln-indexer/internal/core"
	"github.com/onlydustxyz/kiln-indexer/internal/core/repository/blk"
	"github.com/onlydustxyz/kiln-indexer/internal/core/repository/slot"
)

var _ app.QueryService = (*Service)(nil)

type Service struct {
	cfg *app.QueryConfig

	slotRepo  core.SlotRepository
	blockRepo core.BlockRepository
	txRepo    core.TransactionRepository
}

func NewService(_ context.Context, cfg *app.QueryConfig) (*Service, error) {
	var s = new(Service)

	s.cfg = cfg
	ch, pg := cfg.DB.CH, cfg.DB.PG
	s.slotRepo = slot.NewRepository(ch, pg)

	blockRepo := blk.NewRepository(ch, pg)
	s.blockRepo = blockRepo
	s.txRepo = blockRepo

	return s, nil
}

func (s *Service) GetStatistics(ctx context.Context) (*core.Statistics, error) {
	ret := new(core.Statistics)

	lastSlot, err := s.slotRepo.GetLastSlot(ctx)
	switch {
	case err == nil:
		ret.LastSlotHeight = &lastSlot.Height
	case !errors.Is(err, core.ErrNotFound):
		return nil, errors.Wrap(err, "get last slot")
	}

	lastBlock, err := s.blockRepo.GetLastBlock(ctx)
	switch {
	case err == nil:
		ret.LastBlockHeight = &lastBlock.Height
	case !errors.Is(err, core.ErrNotFound):
		return nil, errors.Wrap(err, "get last block")
	}

	ret.TransactionsTotal, err = s.txRepo.CountTransactions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count transactions")
	}

	return ret, nil
}

func (s *Service) GetSlots(ctx context.Context, filter *core.SlotFilter, offset, limit int) ([]*core.Slot, error) {
	return s.slotRepo.GetSlots(ctx, filter, offset, limit)
}

func (s *Service) GetBlocks(ctx context.Context, filter *core.BlockFilter, offset, limit int) ([]*core.Block, error) {
	return s.blockRepo.GetBlocks(ctx, filter, offset, limit)
}

func (s *Service) GetTransactions(ctx context.Context, filter *core.TransactionFilter, offset, limit int) ([]*core.Transaction, error) {
	return s.txRepo.GetTransactions(ctx, filter, offset, limit)
}

// GetAddressNfts packs the NFT types an address is eligible to mint
// from its transaction history.
func (s *Service) GetAddressNfts(ctx context.Context, addr string) (core.PackedNftTypes, error) {
	var packed core.PackedNftTypes

	transactions, err := s.txRepo.ListFromAddress(ctx, addr)
	if err != nil {
		return 0, errors.Wrapf(err, "list transactions from %s", addr)
	}

	if len(transactions) > 0 {
		packed.Set(core.NftDoOneTransaction)
	}
	if len(transactions) >= 100 {
		packed.Set(core.NftDoHundredTransactions)
	}

	var deployments int
	recipients := map[string]int{}
	for _, t := range transactions {
		if t.IsDeployment() {
			deployments++
			continue
		}
		if t.IsContractCall() {
			recipients[t.ToAddress]++
		}
	}

	if deployments >= 1 {
		packed.Set(core.NftDeployContract)
	}
	if deployments >= 10 {
		packed.Set(core.NftDeployTenContracts)
	}
	if deployments >= 50 {
		packed.Set(core.NftDeployFiftyContracts)
	}

	// called 10 distinct contracts at least 10 times each
	var calledOften int
	for _, n := range recipients {
		if n >= 10 {
			calledOften++
		}
	}
	if calledOften >= 10 {
		packed.Set(core.NftTenCallsToTenContracts)
	}

	return packed, nil
}
