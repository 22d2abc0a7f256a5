package extract

import (
	"sort"
	"strings"

	"github.com/sig-0/travelrates/storage/types"
)

// MissingCountries returns the countries named in the table titles
// that have no rate entry, lowercased and sorted
func MissingCountries(tables []*types.RawTable, entries []*types.RateEntry) []string {
	expected := make(map[string]struct{})

	for _, table := range tables {
		if country := ExtractCountryFromTitle(table.Title); country != nil {
			expected[normalizeName(*country)] = struct{}{}
		}
	}

	for _, entry := range entries {
		if entry.Country != nil {
			delete(expected, normalizeName(*entry.Country))
		}
	}

	missing := make([]string, 0, len(expected))
	for country := range expected {
		missing = append(missing, country)
	}

	sort.Strings(missing)

	return missing
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
