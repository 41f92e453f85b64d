package db

import (
	"github.com/allisson/go-env"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/onlydustxyz/kiln-indexer/internal/core/repository"
)

func connect(ctx *cli.Context) (*repository.DB, error) {
	chURL := env.GetString("DB_CH_URL", "")
	pgURL := env.GetString("DB_PG_URL", "")

	conn, err := repository.ConnectDB(ctx.Context, chURL, pgURL)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to a database")
	}
	return conn, nil
}

var tables = []string{"transactions", "blocks", "slots"}

var Command = &cli.Command{
	Name:  "migrate",
	Usage: "Migrates database",

	Subcommands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Creates tables and indexes",
			Action: func(c *cli.Context) error {
				conn, err := connect(c)
				if err != nil {
					return err
				}
				defer conn.Close()

				if err := repository.CreateTables(c.Context, conn); err != nil {
					return err
				}

				log.Info().Msg("tables created")
				return nil
			},
		},
		{
			Name:  "drop",
			Usage: "Drops all tables",
			Action: func(c *cli.Context) error {
				conn, err := connect(c)
				if err != nil {
					return err
				}
				defer conn.Close()

				for _, t := range tables {
					if _, err := conn.PG.ExecContext(c.Context, "DROP TABLE IF EXISTS "+t); err != nil {
						return errors.Wrapf(err, "drop pg table %s", t)
					}
					if _, err := conn.CH.ExecContext(c.Context, "DROP TABLE IF EXISTS "+t); err != nil {
						return errors.Wrapf(err, "drop ch table %s", t)
					}
				}

				log.Info().Msg("tables dropped")
				return nil
			},
		},
	},
}
