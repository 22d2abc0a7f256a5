package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sig-0/travelrates/storage"
	"github.com/sig-0/travelrates/storage/types"
)

// rawTable is a saved raw table, with its source
type rawTable struct {
	source types.SourceConfig
	table  types.RawTable
}

type Storage struct {
	tables         []rawTable
	rates          []types.RateEntry
	exchangeRates  []types.ExchangeRateEntry
	accommodations []types.AccommodationEntry

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		tables:         make([]rawTable, 0),
		rates:          make([]types.RateEntry, 0),
		exchangeRates:  make([]types.ExchangeRateEntry, 0),
		accommodations: make([]types.AccommodationEntry, 0),
	}
}

func (s *Storage) SaveRawTables(
	_ context.Context,
	source types.SourceConfig,
	tables []*types.RawTable,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tables {
		s.tables = append(s.tables, rawTable{
			source: source,
			table:  *t,
		})
	}

	return nil
}

func (s *Storage) SaveRateEntries(_ context.Context, entries []*types.RateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.rates = append(s.rates, *e)
	}

	return nil
}

func (s *Storage) SaveExchangeRates(_ context.Context, entries []*types.ExchangeRateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.exchangeRates = append(s.exchangeRates, *e)
	}

	return nil
}

func (s *Storage) SaveAccommodations(_ context.Context, entries []*types.AccommodationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.accommodations = append(s.accommodations, *e)
	}

	return nil
}

func (s *Storage) RateEntries(
	_ context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.RateEntry], error) {
	s.mu.RLock()

	out := make([]*types.RateEntry, 0)

	for _, v := range s.rates {
		if !matchesSource(query.Source, v.Source) ||
			!matchesText(query.Country, v.Country) ||
			!matchesText(query.City, v.City) ||
			!matchesCurrency(query.Currency, v.Currency) {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	return paginate(out, query), nil
}

func (s *Storage) ExchangeRates(
	_ context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.ExchangeRateEntry], error) {
	s.mu.RLock()

	out := make([]*types.ExchangeRateEntry, 0)

	for _, v := range s.exchangeRates {
		if !matchesSource(query.Source, v.Source) ||
			!matchesCurrency(query.Currency, &v.Currency) {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	return paginate(out, query), nil
}

func (s *Storage) Accommodations(
	_ context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.AccommodationEntry], error) {
	s.mu.RLock()

	out := make([]*types.AccommodationEntry, 0)

	for _, v := range s.accommodations {
		if !matchesSource(query.Source, v.Source) ||
			!matchesText(query.City, v.City) ||
			!matchesCurrency(query.Currency, v.Currency) {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	return paginate(out, query), nil
}

func (s *Storage) ListSources(_ context.Context) ([]types.Source, error) {
	s.mu.RLock()

	seen := make(map[types.Source]struct{})

	for _, t := range s.tables {
		seen[t.source.Name] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]types.Source, 0, len(seen))

	for v := range seen {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})

	return out, nil
}

func (s *Storage) ListCountries(_ context.Context) ([]string, error) {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for _, r := range s.rates {
		if r.Country == nil || *r.Country == "" {
			continue
		}

		seen[*r.Country] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]string, 0, len(seen))

	for v := range seen {
		out = append(out, v)
	}

	sort.Strings(out)

	return out, nil
}

// paginate cuts the requested page out of the matched entries
func paginate[T any](matched []T, query *types.EntryQuery) *types.Page[T] {
	var (
		total         = int64(len(matched))
		limit, offset = storage.PageBounds(query)
	)

	if offset >= total {
		return &types.Page[T]{
			Results: make([]T, 0),
			Total:   total,
		}
	}

	end := min(offset+int64(limit), total)

	return &types.Page[T]{
		Results: matched[offset:end],
		Total:   total,
	}
}

func matchesSource(filter *types.Source, source types.Source) bool {
	return filter == nil || *filter == source
}

func matchesCurrency(filter, currency *types.Currency) bool {
	if filter == nil {
		return true
	}

	return currency != nil && *filter == *currency
}

// matchesText matches the optional text case-insensitively
func matchesText(filter, value *string) bool {
	if filter == nil {
		return true
	}

	return value != nil && strings.EqualFold(*filter, *value)
}
