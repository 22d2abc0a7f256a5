package mock

import (
	"context"

	"github.com/sig-0/travelrates/storage/types"
)

type (
	SaveRawTablesDelegate      func(context.Context, types.SourceConfig, []*types.RawTable) error
	SaveRateEntriesDelegate    func(context.Context, []*types.RateEntry) error
	SaveExchangeRatesDelegate  func(context.Context, []*types.ExchangeRateEntry) error
	SaveAccommodationsDelegate func(context.Context, []*types.AccommodationEntry) error
	RateEntriesDelegate        func(context.Context, *types.EntryQuery) (*types.Page[*types.RateEntry], error)
	ExchangeRatesDelegate      func(context.Context, *types.EntryQuery) (*types.Page[*types.ExchangeRateEntry], error)
	AccommodationsDelegate     func(context.Context, *types.EntryQuery) (*types.Page[*types.AccommodationEntry], error)
	ListSourcesDelegate        func(context.Context) ([]types.Source, error)
	ListCountriesDelegate      func(context.Context) ([]string, error)
)

type Storage struct {
	SaveRawTablesFn      SaveRawTablesDelegate
	SaveRateEntriesFn    SaveRateEntriesDelegate
	SaveExchangeRatesFn  SaveExchangeRatesDelegate
	SaveAccommodationsFn SaveAccommodationsDelegate
	RateEntriesFn        RateEntriesDelegate
	ExchangeRatesFn      ExchangeRatesDelegate
	AccommodationsFn     AccommodationsDelegate
	ListSourcesFn        ListSourcesDelegate
	ListCountriesFn      ListCountriesDelegate
}

func (m *Storage) SaveRawTables(
	ctx context.Context,
	source types.SourceConfig,
	tables []*types.RawTable,
) error {
	if m.SaveRawTablesFn != nil {
		return m.SaveRawTablesFn(ctx, source, tables)
	}

	return nil
}

func (m *Storage) SaveRateEntries(ctx context.Context, entries []*types.RateEntry) error {
	if m.SaveRateEntriesFn != nil {
		return m.SaveRateEntriesFn(ctx, entries)
	}

	return nil
}

func (m *Storage) SaveExchangeRates(ctx context.Context, entries []*types.ExchangeRateEntry) error {
	if m.SaveExchangeRatesFn != nil {
		return m.SaveExchangeRatesFn(ctx, entries)
	}

	return nil
}

func (m *Storage) SaveAccommodations(ctx context.Context, entries []*types.AccommodationEntry) error {
	if m.SaveAccommodationsFn != nil {
		return m.SaveAccommodationsFn(ctx, entries)
	}

	return nil
}

func (m *Storage) RateEntries(
	ctx context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.RateEntry], error) {
	if m.RateEntriesFn != nil {
		return m.RateEntriesFn(ctx, query)
	}

	return nil, nil
}

func (m *Storage) ExchangeRates(
	ctx context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.ExchangeRateEntry], error) {
	if m.ExchangeRatesFn != nil {
		return m.ExchangeRatesFn(ctx, query)
	}

	return nil, nil
}

func (m *Storage) Accommodations(
	ctx context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.AccommodationEntry], error) {
	if m.AccommodationsFn != nil {
		return m.AccommodationsFn(ctx, query)
	}

	return nil, nil
}

func (m *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	if m.ListSourcesFn != nil {
		return m.ListSourcesFn(ctx)
	}

	return nil, nil
}

func (m *Storage) ListCountries(ctx context.Context) ([]string, error) {
	if m.ListCountriesFn != nil {
		return m.ListCountriesFn(ctx)
	}

	return nil, nil
}
