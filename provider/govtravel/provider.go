package govtravel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sig-0/travelrates/extract"
	"github.com/sig-0/travelrates/storage/types"
)

type ProviderOption func(p *Provider)

// WithLogger specifies the logger for the provider
func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithPaginator overrides the source pagination strategy
func WithPaginator(paginator Paginator) ProviderOption {
	return func(p *Provider) {
		p.paginator = paginator
	}
}

// Provider harvests a single government travel source:
// fetch the page(s), locate the tables, and classify their rows
type Provider struct {
	fetcher   PageFetcher
	paginator Paginator
	logger    *slog.Logger

	source   types.SourceConfig
	settings Settings
}

// NewProvider creates a new provider for the given source
func NewProvider(
	source types.SourceConfig,
	settings Settings,
	fetcher PageFetcher,
	opts ...ProviderOption,
) *Provider {
	p := &Provider{
		fetcher:  fetcher,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		source:   source,
		settings: settings,
	}

	// Apply the options
	for _, opt := range opts {
		opt(p)
	}

	if p.paginator == nil {
		p.paginator = NewPaginator(source, p.logger)
	}

	return p
}

func (p *Provider) Name() string {
	return p.source.Name.String()
}

func (p *Provider) Interval() time.Duration {
	return p.settings.Interval
}

// Source returns the source the provider harvests
func (p *Provider) Source() types.SourceConfig {
	return p.source
}

// Harvest runs the full source pipeline. Table indexes run continuously
// across the pages of the source. Only fetch failures are returned
func (p *Provider) Harvest(ctx context.Context) (*types.Harvest, error) {
	tables := make([]*types.RawTable, 0)

	visit := func(page Page) error {
		pageTables, err := extract.ExtractTables(page.Markup)
		if err != nil {
			// The page has no usable tabular data
			p.logger.Warn(
				"unable to extract page tables",
				"source", p.Name(),
				"url", page.URL,
				"err", err,
			)

			return nil
		}

		offset := len(tables)

		for _, table := range pageTables {
			table.Index += offset

			tables = append(tables, table)

			if !sleepCtx(ctx, p.settings.Pause) {
				return ctx.Err()
			}
		}

		p.logger.Debug(
			"extracted page tables",
			"source", p.Name(),
			"url", page.URL,
			"tables", len(pageTables),
		)

		return nil
	}

	if err := p.paginator.Paginate(ctx, p.fetcher, p.source.URL, visit); err != nil {
		return nil, fmt.Errorf("unable to harvest %s: %w", p.Name(), err)
	}

	harvest := extract.Classify(p.source, tables)

	p.logger.Info(
		"harvested source",
		"source", p.Name(),
		"tables", len(harvest.Tables),
		"rates", len(harvest.Rates),
		"exchange_rates", len(harvest.ExchangeRates),
		"accommodations", len(harvest.Accommodations),
	)

	return harvest, nil
}

// NewProviders creates the providers of the given sources, in order.
// The providers share one fetcher, so the politeness delay spans sources
func NewProviders(
	sources []types.SourceConfig,
	settings Settings,
	logger *slog.Logger,
) []*Provider {
	var (
		fetcher   = NewFetcher(settings, WithFetcherLogger(logger))
		providers = make([]*Provider, 0, len(sources))
	)

	for _, source := range sources {
		providers = append(providers, NewProvider(
			source,
			settings,
			fetcher,
			WithLogger(logger),
		))
	}

	return providers
}
