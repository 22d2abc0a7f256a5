package sql

const (
	insertRawTable = `
INSERT INTO raw_tables (source, source_url, table_index, title, data_json)
VALUES ($1, $2, $3, $4, $5)`

	insertRateEntry = `
INSERT INTO rate_entries (
    source, source_url, table_index, table_title, country, city, province,
    currency, rate_type, rate_amount, unit, effective_date, raw_json
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	insertExchangeRate = `
INSERT INTO exchange_rates (
    source, source_url, table_index, table_title, currency,
    rate_to_cad, effective_date, raw_json
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertAccommodation = `
INSERT INTO accommodations (
    source, source_url, table_index, table_title, property_name, address, city,
    province, phone, rate_amount, currency, effective_date, raw_json
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
)

// The filters match anything on NULL arguments
const (
	// (source, country, city, currency)
	rateEntriesFilter = `
FROM rate_entries
WHERE ($1::text IS NULL OR source = $1)
  AND ($2::text IS NULL OR lower(country) = lower($2))
  AND ($3::text IS NULL OR lower(city) = lower($3))
  AND ($4::text IS NULL OR currency = $4)`

	// (source, currency)
	exchangeRatesFilter = `
FROM exchange_rates
WHERE ($1::text IS NULL OR source = $1)
  AND ($2::text IS NULL OR currency = $2)`

	// (source, city, currency)
	accommodationsFilter = `
FROM accommodations
WHERE ($1::text IS NULL OR source = $1)
  AND ($2::text IS NULL OR lower(city) = lower($2))
  AND ($3::text IS NULL OR currency = $3)`

	selectRateEntries = `
SELECT source, source_url, table_index, table_title, country, city, province,
    currency, rate_type, rate_amount, unit, effective_date, raw_json,
    COUNT(*) OVER () AS total` + rateEntriesFilter + `
ORDER BY id
LIMIT $5 OFFSET $6`

	selectExchangeRates = `
SELECT source, source_url, table_index, table_title, currency,
    rate_to_cad, effective_date, raw_json,
    COUNT(*) OVER () AS total` + exchangeRatesFilter + `
ORDER BY id
LIMIT $3 OFFSET $4`

	selectAccommodations = `
SELECT source, source_url, table_index, table_title, property_name, address, city,
    province, phone, rate_amount, currency, effective_date, raw_json,
    COUNT(*) OVER () AS total` + accommodationsFilter + `
ORDER BY id
LIMIT $4 OFFSET $5`

	countRateEntries    = `SELECT COUNT(*)` + rateEntriesFilter
	countExchangeRates  = `SELECT COUNT(*)` + exchangeRatesFilter
	countAccommodations = `SELECT COUNT(*)` + accommodationsFilter

	listSources = `SELECT DISTINCT source FROM raw_tables ORDER BY source`

	listCountries = `
SELECT DISTINCT country FROM rate_entries
WHERE country IS NOT NULL AND country <> ''
ORDER BY country`
)
