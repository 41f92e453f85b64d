package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/go-clickhouse/ch"
)

const (
	chPoolSize = 16

	pingAttempts   = 8
	pingRetryDelay = 2 * time.Second
)

type DB struct {
	CH *ch.DB
	PG *bun.DB
}

func (db *DB) Close() {
	_ = db.CH.Close()
	_ = db.PG.Close()
}

// waitPing retries until the database answers or ctx is cancelled,
// covering the window where the container is still starting.
func waitPing(ctx context.Context, ping func(context.Context) error) error {
	var err error
	for i := 0; i < pingAttempts; i++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingRetryDelay):
		}
	}
	return err
}

func ConnectDB(ctx context.Context, dsnCH, dsnPG string, opts ...ch.Option) (*DB, error) {
	opts = append([]ch.Option{
		ch.WithDSN(dsnCH),
		ch.WithAutoCreateDatabase(true),
		ch.WithPoolSize(chPoolSize),
	}, opts...)
	chDB := ch.Connect(opts...)

	if err := waitPing(ctx, chDB.Ping); err != nil {
		return nil, errors.Wrap(err, "cannot ping ch")
	}

	sqlDB := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsnPG),
		pgdriver.WithApplicationName("kiln-indexer"),
		pgdriver.WithWriteTimeout(time.Minute),
	))
	pgDB := bun.NewDB(sqlDB, pgdialect.New())

	if err := waitPing(ctx, pgDB.PingContext); err != nil {
		return nil, errors.Wrap(err, "cannot ping pg")
	}

	return &DB{CH: chDB, PG: pgDB}, nil
}
