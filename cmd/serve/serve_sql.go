package serve

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/travelrates/cmd/db"
	"github.com/sig-0/travelrates/cmd/env"
	"github.com/sig-0/travelrates/storage/sql"
)

type serveSQLCfg struct {
	rootCfg *serveCfg
}

// newServeSQLCmd creates the serve sql command
func newServeSQLCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveSQLCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("sql", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "sql",
		ShortUsage: "serve sql [flags]",
		LongHelp:   "Serves the travel rates, using a PostgreSQL datastore",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

// exec executes the server serve command
func (c *serveSQLCfg) exec(ctx context.Context, _ []string) error {
	cfg, logger, err := c.rootCfg.setup()
	if err != nil {
		return err
	}

	pool, err := db.ConnectPostgres(ctx, logger)
	if err != nil {
		return err
	}

	defer pool.Close()

	// Create an SQL store
	store := sql.NewStorage(pool)

	return c.rootCfg.run(ctx, cfg, store, logger)
}
