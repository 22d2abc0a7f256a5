package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/travelrates/cmd/env"
	"github.com/sig-0/travelrates/config"
	"github.com/sig-0/travelrates/ingest"
	"github.com/sig-0/travelrates/provider/govtravel"
	"github.com/sig-0/travelrates/server"
	"github.com/sig-0/travelrates/storage"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	configPath    string
	listenAddress string
	logLevel      string

	refresh *time.Duration // overrides the configured interval, if set
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the harvested travel rates",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeSQLiteCmd(cfg),
		newServeSQLCmd(cfg),
		newServeMemoryCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.listenAddress,
		"listen",
		"",
		fmt.Sprintf("the IP:PORT URL for the server (default %s)", config.DefaultListenAddress),
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the TOML configuration, if any",
	)

	fs.StringVar(
		&c.logLevel,
		"log-level",
		"info",
		"the log level (debug, info, warn, error)",
	)

	fs.Func(
		"refresh",
		fmt.Sprintf(
			"the source re-harvest interval, 0 disables harvesting (defaults to the configured interval, %s)",
			govtravel.DefaultInterval,
		),
		c.setRefresh,
	)
}

// setRefresh parses the -refresh flag value
func (c *serveCfg) setRefresh(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}

	if d < 0 {
		return fmt.Errorf("negative refresh interval %s", d)
	}

	c.refresh = &d

	return nil
}

// harvestDisabled returns a flag indicating if scheduled harvesting is turned off
func (c *serveCfg) harvestDisabled() bool {
	return c.refresh != nil && *c.refresh == 0
}

// setup loads the environment, the logger and the configuration
func (c *serveCfg) setup() (*config.Config, *slog.Logger, error) {
	logger, err := env.NewLogger(c.logLevel)
	if err != nil {
		return nil, nil, err
	}

	// Load .env
	if err = godotenv.Load(); err != nil {
		logger.Debug("unable to load .env file")
	}

	cfg := config.DefaultConfig()

	// Read the configuration, if any
	if c.configPath != "" {
		if cfg, err = config.Read(c.configPath); err != nil {
			return nil, nil, fmt.Errorf("unable to read config, %w", err)
		}
	}

	if c.listenAddress != "" {
		cfg.Server.ListenAddress = c.listenAddress
	}

	if c.refresh != nil && *c.refresh > 0 {
		cfg.Scrape.Interval = *c.refresh
	}

	if err = config.ValidateConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration, %w", err)
	}

	return cfg, logger, nil
}

// run serves the store, and keeps it fresh with scheduled harvests
func (c *serveCfg) run(
	ctx context.Context,
	cfg *config.Config,
	store storage.Storage,
	logger *slog.Logger,
) error {
	// Create the server instance
	s, err := server.New(
		store,
		server.WithLogger(logger),
		server.WithConfig(&cfg.Server),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	if c.harvestDisabled() {
		logger.Info("scheduled harvesting disabled")

		return group.Wait()
	}

	// Create the harvest service
	orchestrator := ingest.New(store, ingest.WithLogger(logger))
	for _, provider := range defaultProviders(&cfg.Scrape, logger) {
		if err = orchestrator.Register(provider); err != nil {
			return fmt.Errorf("unable to register provider: %w", err)
		}
	}

	// Start the harvest service
	group.Go(func() error {
		return orchestrator.Start(gCtx)
	})

	return group.Wait()
}
