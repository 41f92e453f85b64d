package sync

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/onlydustxyz/kiln-indexer/internal/app"
	"github.com/onlydustxyz/kiln-indexer/internal/app/node"
	"github.com/onlydustxyz/kiln-indexer/internal/app/sync"
	"github.com/onlydustxyz/kiln-indexer/internal/core"
	"github.com/onlydustxyz/kiln-indexer/internal/core/repository"
	"github.com/onlydustxyz/kiln-indexer/internal/core/repository/blk"
	"github.com/onlydustxyz/kiln-indexer/internal/core/repository/slot"
)

func fromHeight(name string) *uint64 {
	v := env.GetInt64(name, -1)
	if v < 0 {
		return nil
	}
	h := uint64(v)
	return &h
}

var Command = &cli.Command{
	Name:  "sync",
	Usage: "Keeps the local store in sync with the chain head",

	Action: func(ctx *cli.Context) error {
		chURL := env.GetString("DB_CH_URL", "")
		pgURL := env.GetString("DB_PG_URL", "")

		conn, err := repository.ConnectDB(ctx.Context, chURL, pgURL)
		if err != nil {
			return errors.Wrap(err, "cannot connect to a database")
		}
		defer conn.Close()

		interval := time.Duration(env.GetInt64("SYNC_INTERVAL", 6)) * time.Second

		beacon := node.NewBeaconClient(env.GetString("BEACON_URL", ""))
		execution, err := node.NewExecutionClient(ctx.Context, env.GetString("EXECUTION_URL", ""))
		if err != nil {
			return errors.Wrap(err, "cannot connect to the execution node")
		}

		slots, err := sync.NewService(&app.SyncConfig[*core.Slot]{
			Name:       "slots",
			Node:       beacon,
			Store:      slot.NewRepository(conn.CH, conn.PG),
			FromHeight: fromHeight("FROM_SLOT"),
			Interval:   interval,
		})
		if err != nil {
			return errors.Wrap(err, "new slot syncer")
		}

		blocks, err := sync.NewService(&app.SyncConfig[*core.Block]{
			Name:       "blocks",
			Node:       execution,
			Store:      blk.NewRepository(conn.CH, conn.PG),
			FromHeight: fromHeight("FROM_BLOCK"),
			Interval:   interval,
		})
		if err != nil {
			return errors.Wrap(err, "new block syncer")
		}

		runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gCtx := errgroup.WithContext(runCtx)
		g.Go(func() error { return slots.Run(gCtx) })
		g.Go(func() error { return blocks.Run(gCtx) })

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
