package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/travelrates/provider/currencies"
	"github.com/sig-0/travelrates/storage/types"
)

func ptr[T any](v T) *T {
	return &v
}

func TestMemory_RateEntries(t *testing.T) {
	t.Parallel()

	var (
		s   = NewStorage()
		ctx = context.Background()
	)

	require.NoError(t, s.SaveRateEntries(ctx, []*types.RateEntry{
		{
			Source:     types.SourceInternational,
			Country:    ptr("Albania"),
			City:       ptr("Tirana"),
			Currency:   ptr(currencies.EUR),
			RateType:   "breakfast",
			RateAmount: 25,
		},
		{
			Source:     types.SourceInternational,
			Country:    ptr("Albania"),
			City:       ptr("Durres"),
			Currency:   ptr(currencies.EUR),
			RateType:   "lunch",
			RateAmount: 30,
		},
		{
			Source:     types.SourceDomestic,
			City:       ptr("Ottawa"),
			Currency:   ptr(currencies.CAD),
			RateType:   "dinner",
			RateAmount: 50,
		},
	}))

	t.Run("filter by country and city", func(t *testing.T) {
		t.Parallel()

		page, err := s.RateEntries(ctx, &types.EntryQuery{
			Country: ptr("albania"),
			City:    ptr("TIRANA"),
		})
		require.NoError(t, err)

		require.Len(t, page.Results, 1)
		assert.Equal(t, "breakfast", page.Results[0].RateType)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("filter by source and currency", func(t *testing.T) {
		t.Parallel()

		page, err := s.RateEntries(ctx, &types.EntryQuery{
			Source:   ptr(types.SourceDomestic),
			Currency: ptr(currencies.CAD),
		})
		require.NoError(t, err)

		require.Len(t, page.Results, 1)
		assert.Equal(t, 50.0, page.Results[0].RateAmount)

		page, err = s.RateEntries(ctx, &types.EntryQuery{Currency: ptr(currencies.USD)})
		require.NoError(t, err)

		assert.Empty(t, page.Results)
		assert.Zero(t, page.Total)
	})

	t.Run("paginated", func(t *testing.T) {
		t.Parallel()

		page, err := s.RateEntries(ctx, &types.EntryQuery{Limit: 2, Offset: 1})
		require.NoError(t, err)

		require.Len(t, page.Results, 2)
		assert.Equal(t, "lunch", page.Results[0].RateType)
		assert.Equal(t, int64(3), page.Total)

		page, err = s.RateEntries(ctx, &types.EntryQuery{Offset: 3})
		require.NoError(t, err)

		assert.Empty(t, page.Results)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("results are copies", func(t *testing.T) {
		t.Parallel()

		page, err := s.RateEntries(ctx, &types.EntryQuery{Source: ptr(types.SourceDomestic)})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)

		page.Results[0].RateAmount = 0

		page, err = s.RateEntries(ctx, &types.EntryQuery{Source: ptr(types.SourceDomestic)})
		require.NoError(t, err)

		assert.Equal(t, 50.0, page.Results[0].RateAmount)
	})
}

func TestMemory_ExchangeRates(t *testing.T) {
	t.Parallel()

	var (
		s   = NewStorage()
		ctx = context.Background()
	)

	require.NoError(t, s.SaveExchangeRates(ctx, []*types.ExchangeRateEntry{
		{Source: types.SourceInternational, Currency: currencies.EUR, RateToCAD: 1.4567},
		{Source: types.SourceInternational, Currency: currencies.USD, RateToCAD: 1.35},
	}))

	page, err := s.ExchangeRates(ctx, &types.EntryQuery{Currency: ptr(currencies.EUR)})
	require.NoError(t, err)

	require.Len(t, page.Results, 1)
	assert.Equal(t, 1.4567, page.Results[0].RateToCAD)
}

func TestMemory_Accommodations(t *testing.T) {
	t.Parallel()

	var (
		s   = NewStorage()
		ctx = context.Background()
	)

	require.NoError(t, s.SaveAccommodations(ctx, []*types.AccommodationEntry{
		{Source: types.SourceAccommodations, PropertyName: ptr("Hotel A"), City: ptr("Ottawa"), Currency: ptr(currencies.CAD)},
		{Source: types.SourceAccommodations, PropertyName: ptr("Hotel B"), City: ptr("Gatineau")},
	}))

	page, err := s.Accommodations(ctx, &types.EntryQuery{City: ptr("ottawa")})
	require.NoError(t, err)

	require.Len(t, page.Results, 1)
	assert.Equal(t, "Hotel A", *page.Results[0].PropertyName)

	// Entries without a currency never match a currency filter
	page, err = s.Accommodations(ctx, &types.EntryQuery{Currency: ptr(currencies.CAD)})
	require.NoError(t, err)

	assert.Equal(t, int64(1), page.Total)
}

func TestMemory_Listings(t *testing.T) {
	t.Parallel()

	var (
		s   = NewStorage()
		ctx = context.Background()
	)

	sources, err := s.ListSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	require.NoError(t, s.SaveRawTables(ctx, types.SourceConfig{Name: types.SourceInternational}, []*types.RawTable{{Index: 0}}))
	require.NoError(t, s.SaveRawTables(ctx, types.SourceConfig{Name: types.SourceDomestic}, []*types.RawTable{{Index: 0}, {Index: 1}}))

	require.NoError(t, s.SaveRateEntries(ctx, []*types.RateEntry{
		{Source: types.SourceInternational, Country: ptr("Chile")},
		{Source: types.SourceInternational, Country: ptr("Albania")},
		{Source: types.SourceInternational, Country: ptr("Chile")},
		{Source: types.SourceInternational, Country: ptr("")},
		{Source: types.SourceDomestic},
	}))

	sources, err = s.ListSources(ctx)
	require.NoError(t, err)

	assert.Equal(t, []types.Source{types.SourceDomestic, types.SourceInternational}, sources)

	countries, err := s.ListCountries(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Albania", "Chile"}, countries)
}
