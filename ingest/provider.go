package ingest

import (
	"context"
	"time"

	"github.com/sig-0/travelrates/storage/types"
)

// Provider is a single harvestable travel-rate source
type Provider interface {
	// Name returns the source name of the provider
	Name() string

	// Interval returns the interval at which the source should be re-harvested
	Interval() time.Duration

	// Harvest fetches the source and classifies its tables
	Harvest(context.Context) (*types.Harvest, error)
}
