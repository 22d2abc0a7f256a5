package serve

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/travelrates/cmd/env"
	"github.com/sig-0/travelrates/storage/memory"
)

type serveMemoryCfg struct {
	rootCfg *serveCfg
}

// newServeMemoryCmd creates the serve memory command.
func newServeMemoryCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveMemoryCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("memory", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "memory",
		ShortUsage: "serve memory [flags]",
		LongHelp:   "Serves the travel rates, using an in-memory datastore filled by the scheduled harvests",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveMemoryCfg) exec(ctx context.Context, _ []string) error {
	cfg, logger, err := c.rootCfg.setup()
	if err != nil {
		return err
	}

	if c.rootCfg.harvestDisabled() {
		logger.Warn("the in-memory store stays empty without scheduled harvests")
	}

	// Create an in-memory store
	store := memory.NewStorage()

	return c.rootCfg.run(ctx, cfg, store, logger)
}
