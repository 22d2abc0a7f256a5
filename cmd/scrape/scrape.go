package scrape

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/travelrates/cmd/db"
	"github.com/sig-0/travelrates/cmd/env"
	"github.com/sig-0/travelrates/config"
	"github.com/sig-0/travelrates/ingest"
	"github.com/sig-0/travelrates/provider/govtravel"
	"github.com/sig-0/travelrates/storage"
	"github.com/sig-0/travelrates/storage/sql"
	"github.com/sig-0/travelrates/storage/sqlite"
)

const defaultDBPath = "data/travel_rates.sqlite3"

var errAllSourcesFailed = errors.New("every source failed")

// scrapeCfg wraps the scrape configuration
type scrapeCfg struct {
	pause *time.Duration // overrides the configured pause, if set

	configPath string
	dbPath     string
	sources    string
	logLevel   string

	postgres bool
}

// NewScrapeCmd creates the scrape command
func NewScrapeCmd() *ffcli.Command {
	cfg := &scrapeCfg{}

	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "scrape",
		ShortUsage: "scrape [flags]",
		LongHelp:   "Harvests the government travel sources once, and saves the results",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *scrapeCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.dbPath,
		"db",
		defaultDBPath,
		"the path to the SQLite database",
	)

	fs.StringVar(
		&c.sources,
		"sources",
		"",
		"the comma-separated sources to harvest (international, domestic, accommodations). Defaults to all",
	)

	fs.Func(
		"pause",
		"the politeness delay between page fetches and table steps (defaults to the configured pause)",
		func(v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}

			c.pause = &d

			return nil
		},
	)

	fs.StringVar(
		&c.logLevel,
		"log-level",
		"info",
		"the log level (debug, info, warn, error)",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the TOML configuration, if any",
	)

	fs.BoolVar(
		&c.postgres,
		"postgres",
		false,
		fmt.Sprintf("save to PostgreSQL (%s) instead of SQLite", env.DBURL),
	)
}

// exec executes the scrape command
func (c *scrapeCfg) exec(ctx context.Context, _ []string) error {
	logger, err := env.NewLogger(c.logLevel)
	if err != nil {
		return err
	}

	// Load .env
	if err = godotenv.Load(); err != nil {
		logger.Debug("unable to load .env file")
	}

	scrapeConfig, err := c.scrapeConfig()
	if err != nil {
		return err
	}

	sources, err := scrapeConfig.SelectSources(splitSources(c.sources))
	if err != nil {
		return err
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	store, closeFn, err := c.openStorage(runCtx, logger)
	if err != nil {
		return err
	}

	defer closeFn()

	providers := make([]ingest.Provider, 0, len(sources))
	for _, p := range govtravel.NewProviders(sources, scrapeConfig.Settings(), logger) {
		providers = append(providers, p)
	}

	summaries := ingest.New(store, ingest.WithLogger(logger)).RunOnce(runCtx, providers...)

	ingest.RenderSummaries(os.Stdout, summaries)

	if ingest.AllFailed(summaries) {
		return errAllSourcesFailed
	}

	return nil
}

// scrapeConfig reads the harvest configuration, and applies the flag overrides
func (c *scrapeCfg) scrapeConfig() (*config.ScrapeConfig, error) {
	cfg := config.DefaultConfig()

	if c.configPath != "" {
		fileCfg, err := config.Read(c.configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}

		cfg = fileCfg
	}

	if c.pause != nil {
		cfg.Scrape.Pause = *c.pause
	}

	if err := config.ValidateScrapeConfig(&cfg.Scrape); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	return &cfg.Scrape, nil
}

// openStorage opens the selected harvest store
func (c *scrapeCfg) openStorage(
	ctx context.Context,
	logger *slog.Logger,
) (storage.Storage, func(), error) {
	if c.postgres {
		pool, err := db.ConnectPostgres(ctx, logger)
		if err != nil {
			return nil, nil, err
		}

		return sql.NewStorage(pool), pool.Close, nil
	}

	store, err := sqlite.Open(ctx, c.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open %s: %w", c.dbPath, err)
	}

	closeFn := func() {
		closeStore(store, logger)
	}

	return store, closeFn, nil
}

// splitSources splits the comma-separated source names
func splitSources(raw string) []string {
	names := make([]string, 0)

	for _, name := range strings.Split(raw, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			names = append(names, name)
		}
	}

	return names
}

func closeStore(c io.Closer, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error(
			"unable to gracefully close the database",
			"err", err,
		)
	}
}
