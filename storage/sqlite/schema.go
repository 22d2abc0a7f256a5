package sqlite

// schema mirrors the four append-only sinks.
// The raw row of every entry is kept as JSON for auditing
const schema = `
CREATE TABLE IF NOT EXISTS raw_tables (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	source_url TEXT NOT NULL,
	table_index INTEGER NOT NULL,
	title TEXT,
	data_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rate_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	source_url TEXT NOT NULL,
	table_index INTEGER,
	table_title TEXT,
	country TEXT,
	city TEXT,
	province TEXT,
	currency TEXT,
	rate_type TEXT,
	rate_amount REAL,
	unit TEXT,
	effective_date TEXT,
	raw_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rate_entries_country ON rate_entries(country);

CREATE TABLE IF NOT EXISTS exchange_rates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	source_url TEXT NOT NULL,
	table_index INTEGER,
	table_title TEXT,
	currency TEXT,
	rate_to_cad REAL,
	effective_date TEXT,
	raw_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accommodations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	source_url TEXT NOT NULL,
	table_index INTEGER,
	table_title TEXT,
	property_name TEXT,
	address TEXT,
	city TEXT,
	province TEXT,
	phone TEXT,
	rate_amount REAL,
	currency TEXT,
	effective_date TEXT,
	raw_json TEXT NOT NULL
);
`

const (
	insertRawTable = `
INSERT INTO raw_tables (source, source_url, table_index, title, data_json)
VALUES (?, ?, ?, ?, ?)`

	insertRateEntry = `
INSERT INTO rate_entries (
	source, source_url, table_index, table_title, country, city, province,
	currency, rate_type, rate_amount, unit, effective_date, raw_json
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertExchangeRate = `
INSERT INTO exchange_rates (
	source, source_url, table_index, table_title, currency,
	rate_to_cad, effective_date, raw_json
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertAccommodation = `
INSERT INTO accommodations (
	source, source_url, table_index, table_title, property_name, address, city,
	province, phone, rate_amount, currency, effective_date, raw_json
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// The filters match anything on NULL arguments
const (
	// (source, country, city, currency)
	rateEntriesFilter = `
FROM rate_entries
WHERE (?1 IS NULL OR source = ?1)
  AND (?2 IS NULL OR lower(country) = lower(?2))
  AND (?3 IS NULL OR lower(city) = lower(?3))
  AND (?4 IS NULL OR currency = ?4)`

	// (source, currency)
	exchangeRatesFilter = `
FROM exchange_rates
WHERE (?1 IS NULL OR source = ?1)
  AND (?2 IS NULL OR currency = ?2)`

	// (source, city, currency)
	accommodationsFilter = `
FROM accommodations
WHERE (?1 IS NULL OR source = ?1)
  AND (?2 IS NULL OR lower(city) = lower(?2))
  AND (?3 IS NULL OR currency = ?3)`

	selectRateEntries = `
SELECT source, source_url, table_index, table_title, country, city, province,
	currency, rate_type, rate_amount, unit, effective_date, raw_json` + rateEntriesFilter + `
ORDER BY id
LIMIT ?5 OFFSET ?6`

	selectExchangeRates = `
SELECT source, source_url, table_index, table_title, currency,
	rate_to_cad, effective_date, raw_json` + exchangeRatesFilter + `
ORDER BY id
LIMIT ?3 OFFSET ?4`

	selectAccommodations = `
SELECT source, source_url, table_index, table_title, property_name, address, city,
	province, phone, rate_amount, currency, effective_date, raw_json` + accommodationsFilter + `
ORDER BY id
LIMIT ?4 OFFSET ?5`

	countRateEntries    = `SELECT COUNT(*)` + rateEntriesFilter
	countExchangeRates  = `SELECT COUNT(*)` + exchangeRatesFilter
	countAccommodations = `SELECT COUNT(*)` + accommodationsFilter

	listSources = `SELECT DISTINCT source FROM raw_tables ORDER BY source`

	listCountries = `
SELECT DISTINCT country FROM rate_entries
WHERE country IS NOT NULL AND country != ''
ORDER BY country`
)
