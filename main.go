package main

import (
	"fmt"
	"os"

	"github.com/allisson/go-env"
	"github.com/urfave/cli/v2"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/onlydustxyz/kiln-indexer/cmd/db"
	"github.com/onlydustxyz/kiln-indexer/cmd/sync"
	"github.com/onlydustxyz/kiln-indexer/cmd/web"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if env.GetBool("DEBUG_LOGS", false) {
		level = zerolog.DebugLevel
	}

	// add file and line number to log
	log.Logger = log.With().Caller().Logger().Level(level)
}

func main() {
	app := &cli.App{
		Name:  "kiln-indexer",
		Usage: "an Ethereum indexing project",
		Commands: []*cli.Command{
			sync.Command,
			web.Command,
			db.Command,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
