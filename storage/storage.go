package storage

import (
	"context"
	"fmt"

	"github.com/sig-0/travelrates/storage/types"
)

const (
	DefaultLimit int32 = 100 // default page size
	MaxLimit     int32 = 500 // max page size
)

// Storage is an abstraction over harvested travel rate data.
// The sinks are append-only, and each batch is saved atomically
type Storage interface {
	// SaveRawTables saves the tables exactly as found on the source pages
	SaveRawTables(context.Context, types.SourceConfig, []*types.RawTable) error

	// SaveRateEntries saves the given per-diem rate entries
	SaveRateEntries(context.Context, []*types.RateEntry) error

	// SaveExchangeRates saves the given exchange rate entries
	SaveExchangeRates(context.Context, []*types.ExchangeRateEntry) error

	// SaveAccommodations saves the given accommodation entries
	SaveAccommodations(context.Context, []*types.AccommodationEntry) error

	// RateEntries fetches the rate entries matching the query, in insertion order
	RateEntries(context.Context, *types.EntryQuery) (*types.Page[*types.RateEntry], error)

	// ExchangeRates fetches the exchange rate entries matching the query, in insertion order
	ExchangeRates(context.Context, *types.EntryQuery) (*types.Page[*types.ExchangeRateEntry], error)

	// Accommodations fetches the accommodation entries matching the query, in insertion order
	Accommodations(context.Context, *types.EntryQuery) (*types.Page[*types.AccommodationEntry], error)

	// ListSources lists all sources with saved tables
	ListSources(context.Context) ([]types.Source, error)

	// ListCountries lists all countries with saved rate entries
	ListCountries(context.Context) ([]string, error)
}

// SaveHarvest saves the harvest, one batch per record kind
func SaveHarvest(ctx context.Context, s Storage, harvest *types.Harvest) error {
	if err := s.SaveRawTables(ctx, harvest.Source, harvest.Tables); err != nil {
		return fmt.Errorf("unable to save raw tables: %w", err)
	}

	if err := s.SaveRateEntries(ctx, harvest.Rates); err != nil {
		return fmt.Errorf("unable to save rate entries: %w", err)
	}

	if err := s.SaveExchangeRates(ctx, harvest.ExchangeRates); err != nil {
		return fmt.Errorf("unable to save exchange rates: %w", err)
	}

	if err := s.SaveAccommodations(ctx, harvest.Accommodations); err != nil {
		return fmt.Errorf("unable to save accommodations: %w", err)
	}

	return nil
}

// PageBounds returns the effective limit and offset of the query
func PageBounds(query *types.EntryQuery) (int32, int64) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	return limit, max(query.Offset, 0)
}
