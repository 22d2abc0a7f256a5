package serve

import (
	"log/slog"

	"github.com/sig-0/travelrates/config"
	"github.com/sig-0/travelrates/ingest"
	"github.com/sig-0/travelrates/provider/govtravel"
)

// defaultProviders returns the harvest providers of the configured sources
func defaultProviders(cfg *config.ScrapeConfig, logger *slog.Logger) []ingest.Provider {
	var (
		govProviders = govtravel.NewProviders(cfg.Sources, cfg.Settings(), logger)
		providers    = make([]ingest.Provider, 0, len(govProviders))
	)

	for _, p := range govProviders {
		providers = append(providers, p)
	}

	return providers
}
