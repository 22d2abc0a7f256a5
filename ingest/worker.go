package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/travelrates/extract"
	"github.com/sig-0/travelrates/storage"
	"github.com/sig-0/travelrates/storage/types"
)

// scheduledIngest is a single scheduled Provider harvest job
type scheduledIngest struct {
	at         time.Time
	provider   Provider
	providerID xid.ID
}

// Less is utilized to sort scheduled ingests by their due-time (earliest == first)
func (a scheduledIngest) Less(b scheduledIngest) bool {
	return a.at.Before(b.at)
}

// ingestSource harvests a single source and saves the harvest.
// The failure, if any, is reported in the summary
func (o *Orchestrator) ingestSource(ctx context.Context, p Provider) Summary {
	summary := Summary{
		Source: p.Name(),
	}

	harvest, err := p.Harvest(ctx)
	if err != nil {
		summary.Err = err

		return summary
	}

	summary.Tables = len(harvest.Tables)
	summary.Rates = len(harvest.Rates)
	summary.ExchangeRates = len(harvest.ExchangeRates)
	summary.Accommodations = len(harvest.Accommodations)

	if err = storage.SaveHarvest(ctx, o.storage, harvest); err != nil {
		summary.Err = fmt.Errorf("unable to save harvest: %w", err)

		return summary
	}

	if harvest.Source.Name == types.SourceInternational {
		if missing := extract.MissingCountries(harvest.Tables, harvest.Rates); len(missing) > 0 {
			o.logger.Warn(
				"countries without rate entries",
				"source", summary.Source,
				"countries", missing,
			)
		}
	}

	return summary
}
