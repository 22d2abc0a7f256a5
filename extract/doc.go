// Package extract turns government travel-rate pages into typed records.
//
// # Pipeline
//
// A page goes through the following steps:
//
//   - ExtractTables finds every table in document order, converts its rows
//     into ordered key/value rows and attaches the nearest preceding heading
//     (h1-h4) or caption as the table title
//   - NormalizeRow lowercases and collapses the column labels, so a fixed
//     vocabulary of synonyms can be matched (e.g. "country", then "country/territory")
//   - ExtractRateEntries, ExtractExchangeRates and ExtractAccommodations classify
//     the rows into per-diem rates, exchange rates and lodging listings
//
// # Absence over failure
//
// Missing or malformed data never fails a run. An unparseable amount drops
// the column, an unknown currency is left empty, and a row that describes
// nothing of interest is skipped. Only fetching can fail.
//
// # Amounts and currencies
//
// ParseAmount reads the first number of a cell ("1,234.56 CAD" is 1234.56),
// ignoring anything after it. DetectCurrency prefers CAD, then USD, then the
// first standalone 3-letter token. International tables state their currency
// only in the title ("Albania - Currency: Euro (EUR)"), which is why the
// title is threaded down to every row of the table.
package extract
