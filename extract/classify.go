package extract

import (
	"github.com/sig-0/travelrates/storage/types"
)

// tableContext is the per-table information stated only in the title
type tableContext struct {
	currency *types.Currency
	country  *string
}

func newTableContext(source types.SourceConfig, title *string) tableContext {
	currency := ExtractCurrencyFromTitle(title)
	if currency == nil {
		currency = source.DefaultCurrency()
	}

	return tableContext{
		currency: currency,
		country:  ExtractCountryFromTitle(title),
	}
}

// ExtractRateEntries emits one rate entry per (row, numeric rate column).
// Location, currency and date columns are resolved per row, and the
// table title fills in the country and currency the rows don't state
func ExtractRateEntries(source types.SourceConfig, tables []*types.RawTable) []*types.RateEntry {
	entries := make([]*types.RateEntry, 0)

	for _, table := range tables {
		tc := newTableContext(source, table.Title)

		for _, row := range table.Rows {
			normalized := NormalizeRow(row)

			country := countryField.text(normalized)
			if country == nil {
				country = tc.country
			}

			var (
				city          = cityField.text(normalized)
				province      = provinceField.text(normalized)
				rowCurrency   = DetectCurrency(currencyField.lookup(normalized), tc.currency)
				effectiveDate = effectiveField.text(normalized)
			)

			for _, cell := range normalized {
				if nonRateColumns.contains(cell.Column) {
					continue
				}

				amount, ok := ParseAmount(cell.Value)
				if !ok {
					continue
				}

				entries = append(entries, &types.RateEntry{
					Source:        source.Name,
					SourceURL:     source.URL,
					TableIndex:    table.Index,
					TableTitle:    table.Title,
					Country:       country,
					City:          city,
					Province:      province,
					Currency:      DetectCurrency(cell.Value, rowCurrency),
					RateType:      cell.Column,
					RateAmount:    amount,
					EffectiveDate: effectiveDate,
					Raw:           row,
				})
			}
		}
	}

	return entries
}

// ExtractExchangeRates emits one entry per row stating both
// a currency and a rate. Any other row is skipped
func ExtractExchangeRates(source types.SourceConfig, tables []*types.RawTable) []*types.ExchangeRateEntry {
	entries := make([]*types.ExchangeRateEntry, 0)

	for _, table := range tables {
		for _, row := range table.Rows {
			normalized := NormalizeRow(row)

			currencyValue := exchangeCurrencyField.lookup(normalized)
			if currencyValue == nil {
				continue
			}

			rate, ok := ParseAmount(exchangeRateField.lookup(normalized))
			if !ok {
				continue
			}

			currency := DetectCurrency(currencyValue, nil)
			if currency == nil {
				continue
			}

			entries = append(entries, &types.ExchangeRateEntry{
				Source:        source.Name,
				SourceURL:     source.URL,
				TableIndex:    table.Index,
				TableTitle:    table.Title,
				Currency:      *currency,
				RateToCAD:     rate,
				EffectiveDate: exchangeEffectiveField.text(normalized),
				Raw:           row,
			})
		}
	}

	return entries
}

// ExtractAccommodations emits one entry per row naming a property or a city.
// Only a "city" column counts toward the skip decision, while the stored
// city still falls back to the location column
func ExtractAccommodations(source types.SourceConfig, tables []*types.RawTable) []*types.AccommodationEntry {
	entries := make([]*types.AccommodationEntry, 0)

	for _, table := range tables {
		tc := newTableContext(source, table.Title)

		for _, row := range table.Rows {
			normalized := NormalizeRow(row)

			var (
				propertyName = propertyField.text(normalized)
				city         = cityField.text(normalized)
			)

			if propertyName == nil && accommodationCityField.text(normalized) == nil {
				continue
			}

			var (
				rateValue  = accommodationRateField.lookup(normalized)
				rateAmount *float64
			)

			if amount, ok := ParseAmount(rateValue); ok {
				rateAmount = &amount
			}

			entries = append(entries, &types.AccommodationEntry{
				Source:        source.Name,
				SourceURL:     source.URL,
				TableIndex:    table.Index,
				TableTitle:    table.Title,
				PropertyName:  propertyName,
				Address:       addressField.text(normalized),
				City:          city,
				Province:      provinceField.text(normalized),
				Phone:         phoneField.text(normalized),
				RateAmount:    rateAmount,
				Currency:      DetectCurrency(rateValue, tc.currency),
				EffectiveDate: effectiveField.text(normalized),
				Raw:           row,
			})
		}
	}

	return entries
}

// Classify runs the classifiers applicable to the source over its tables
func Classify(source types.SourceConfig, tables []*types.RawTable) *types.Harvest {
	harvest := &types.Harvest{
		Source:         source,
		Tables:         tables,
		Rates:          ExtractRateEntries(source, tables),
		ExchangeRates:  ExtractExchangeRates(source, tables),
		Accommodations: make([]*types.AccommodationEntry, 0),
	}

	if source.HasAccommodations() {
		harvest.Accommodations = ExtractAccommodations(source, tables)
	}

	return harvest
}
