package serve

import (
	"context"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/travelrates/cmd/env"
	"github.com/sig-0/travelrates/storage/sqlite"
)

type serveSQLiteCfg struct {
	rootCfg *serveCfg

	dbPath string
}

// newServeSQLiteCmd creates the serve sqlite command
func newServeSQLiteCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveSQLiteCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("sqlite", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	fs.StringVar(
		&cfg.dbPath,
		"db",
		"data/travel_rates.sqlite3",
		"the path to the SQLite database",
	)

	return &ffcli.Command{
		Name:       "sqlite",
		ShortUsage: "serve sqlite [flags]",
		LongHelp:   "Serves the travel rates, using an SQLite datastore",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveSQLiteCfg) exec(ctx context.Context, _ []string) error {
	cfg, logger, err := c.rootCfg.setup()
	if err != nil {
		return err
	}

	store, err := sqlite.Open(ctx, c.dbPath)
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", c.dbPath, err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error(
				"unable to gracefully close the database",
				"err", err,
			)
		}
	}()

	return c.rootCfg.run(ctx, cfg, store, logger)
}
