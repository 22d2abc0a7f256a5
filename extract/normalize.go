package extract

import (
	"strings"

	"github.com/sig-0/travelrates/storage/types"
)

// NormalizeHeader collapses whitespace and case variance in a column label
func NormalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

// NormalizeRow returns a view of the row keyed by normalized column labels.
// When two labels normalize to the same key, the latter value wins
// and the former position is kept
func NormalizeRow(row types.Row) types.Row {
	normalized := make(types.Row, 0, len(row))

	for _, cell := range row {
		normalized = normalized.Set(NormalizeHeader(cell.Column), cell.Value)
	}

	return normalized
}

// field is an ordered list of normalized column labels that
// carry the same logical value. The first non-empty match wins
type field []string

var (
	countryField   = field{"country", "country/territory"}
	cityField      = field{"city", "location"}
	provinceField  = field{"province", "province/territory"}
	currencyField  = field{"currency"}
	effectiveField = field{"effective date", "effective"}

	exchangeCurrencyField  = field{"currency", "currency code", "code"}
	exchangeRateField      = field{"exchange rate", "rate", "cad rate", "rate to cad"}
	exchangeEffectiveField = field{"effective date", "date"}

	propertyField          = field{"property", "hotel", "accommodation", "name"}
	accommodationCityField = field{"city"}
	addressField           = field{"address"}
	phoneField             = field{"phone", "telephone"}
	accommodationRateField = field{"rate", "room rate", "daily rate"}
)

// nonRateColumns are the per-diem columns that never hold a rate amount
var nonRateColumns = newColumnSet(
	countryField,
	cityField,
	provinceField,
	currencyField,
	effectiveField,
	field{
		"type of accommodation",
		"accommodation type",
		"meal total",
		"meal totall", // misspelled on some of the source pages
		"meal totaa l",
		"grand total",
	},
)

// lookup returns the first present, non-empty value for the field
func (f field) lookup(row types.Row) any {
	for _, column := range f {
		value, ok := row.Get(column)
		if !ok || !present(value) {
			continue
		}

		return value
	}

	return nil
}

// text returns the field value as text, if any
func (f field) text(row types.Row) *string {
	value := f.lookup(row)
	if value == nil {
		return nil
	}

	s := stringify(value)

	return &s
}

// present mirrors the notion of an empty cell: absent, blank or zero
func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case float64:
		return v != 0
	default:
		return stringify(v) != ""
	}
}

type columnSet map[string]struct{}

func newColumnSet(fields ...field) columnSet {
	set := make(columnSet)

	for _, f := range fields {
		for _, column := range f {
			set[column] = struct{}{}
		}
	}

	return set
}

func (s columnSet) contains(column string) bool {
	_, ok := s[column]

	return ok
}
