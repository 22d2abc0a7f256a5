package sql

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sig-0/travelrates/storage"
	"github.com/sig-0/travelrates/storage/types"
)

// DB is the subset of the pgx connection used by the store
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage is the PostgreSQL harvest store
type Storage struct {
	db DB
}

func NewStorage(db DB) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveRawTables(
	ctx context.Context,
	source types.SourceConfig,
	tables []*types.RawTable,
) error {
	batch := make([][]any, 0, len(tables))

	for _, table := range tables {
		rows := table.Rows
		if rows == nil {
			rows = []types.Row{}
		}

		data, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("unable to serialize table %d: %w", table.Index, err)
		}

		batch = append(batch, []any{
			source.Name.String(),
			source.URL,
			int32(table.Index), //nolint:gosec // table counts are small
			ptrToText(table.Title),
			string(data),
		})
	}

	if err := s.insertBatch(ctx, insertRawTable, batch); err != nil {
		return fmt.Errorf("unable to save raw tables: %w", err)
	}

	return nil
}

func (s *Storage) SaveRateEntries(ctx context.Context, entries []*types.RateEntry) error {
	batch := make([][]any, 0, len(entries))

	for _, entry := range entries {
		raw, err := json.Marshal(entry.Raw)
		if err != nil {
			return fmt.Errorf("unable to serialize raw row: %w", err)
		}

		batch = append(batch, []any{
			entry.Source.String(),
			entry.SourceURL,
			int32(entry.TableIndex), //nolint:gosec // table counts are small
			ptrToText(entry.TableTitle),
			ptrToText(entry.Country),
			ptrToText(entry.City),
			ptrToText(entry.Province),
			ptrToText(entry.Currency),
			entry.RateType,
			floatToNumeric(entry.RateAmount),
			ptrToText(entry.Unit),
			ptrToText(entry.EffectiveDate),
			string(raw),
		})
	}

	if err := s.insertBatch(ctx, insertRateEntry, batch); err != nil {
		return fmt.Errorf("unable to save rate entries: %w", err)
	}

	return nil
}

func (s *Storage) SaveExchangeRates(ctx context.Context, entries []*types.ExchangeRateEntry) error {
	batch := make([][]any, 0, len(entries))

	for _, entry := range entries {
		raw, err := json.Marshal(entry.Raw)
		if err != nil {
			return fmt.Errorf("unable to serialize raw row: %w", err)
		}

		batch = append(batch, []any{
			entry.Source.String(),
			entry.SourceURL,
			int32(entry.TableIndex), //nolint:gosec // table counts are small
			ptrToText(entry.TableTitle),
			entry.Currency.String(),
			floatToNumeric(entry.RateToCAD),
			ptrToText(entry.EffectiveDate),
			string(raw),
		})
	}

	if err := s.insertBatch(ctx, insertExchangeRate, batch); err != nil {
		return fmt.Errorf("unable to save exchange rates: %w", err)
	}

	return nil
}

func (s *Storage) SaveAccommodations(ctx context.Context, entries []*types.AccommodationEntry) error {
	batch := make([][]any, 0, len(entries))

	for _, entry := range entries {
		raw, err := json.Marshal(entry.Raw)
		if err != nil {
			return fmt.Errorf("unable to serialize raw row: %w", err)
		}

		rateAmount := pgtype.Numeric{} // NULL
		if entry.RateAmount != nil {
			rateAmount = floatToNumeric(*entry.RateAmount)
		}

		batch = append(batch, []any{
			entry.Source.String(),
			entry.SourceURL,
			int32(entry.TableIndex), //nolint:gosec // table counts are small
			ptrToText(entry.TableTitle),
			ptrToText(entry.PropertyName),
			ptrToText(entry.Address),
			ptrToText(entry.City),
			ptrToText(entry.Province),
			ptrToText(entry.Phone),
			rateAmount,
			ptrToText(entry.Currency),
			ptrToText(entry.EffectiveDate),
			string(raw),
		})
	}

	if err := s.insertBatch(ctx, insertAccommodation, batch); err != nil {
		return fmt.Errorf("unable to save accommodations: %w", err)
	}

	return nil
}

// insertBatch sends the insert for every batch item
// as a single pgx batch, inside one transaction
func (s *Storage) insertBatch(ctx context.Context, query string, items [][]any) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	batch := &pgx.Batch{}
	for _, args := range items {
		batch.Queue(query, args...)
	}

	results := tx.SendBatch(ctx, batch)

	for range items {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()

			return fmt.Errorf("unable to insert batch item: %w", err)
		}
	}

	if err = results.Close(); err != nil {
		return fmt.Errorf("unable to close batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("unable to commit batch: %w", err)
	}

	return nil
}

func (s *Storage) RateEntries(
	ctx context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.RateEntry], error) {
	var (
		filter = []any{
			ptrToText(query.Source),
			ptrToText(query.Country),
			ptrToText(query.City),
			ptrToText(query.Currency),
		}

		limit, offset = storage.PageBounds(query)
	)

	rows, err := s.db.Query(ctx, selectRateEntries, append(filter, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rate entries: %w", err)
	}

	defer rows.Close()

	var (
		results = make([]*types.RateEntry, 0)
		total   int64
	)

	for rows.Next() {
		var (
			entry types.RateEntry

			tableIndex                                     pgtype.Int4
			title, country, city, province, currency, unit pgtype.Text
			rateType, effectiveDate                        pgtype.Text
			rateAmount                                     pgtype.Numeric
			raw                                            []byte
			source                                         string
		)

		if err = rows.Scan(
			&source,
			&entry.SourceURL,
			&tableIndex,
			&title,
			&country,
			&city,
			&province,
			&currency,
			&rateType,
			&rateAmount,
			&unit,
			&effectiveDate,
			&raw,
			&total,
		); err != nil {
			return nil, fmt.Errorf("unable to scan rate entry: %w", err)
		}

		if err = json.Unmarshal(raw, &entry.Raw); err != nil {
			return nil, fmt.Errorf("unable to parse raw row: %w", err)
		}

		entry.Source = types.Source(source)
		entry.TableIndex = int(tableIndex.Int32)
		entry.TableTitle = textToPtr(title)
		entry.Country = textToPtr(country)
		entry.City = textToPtr(city)
		entry.Province = textToPtr(province)
		entry.Currency = textToCurrency(currency)
		entry.RateType = rateType.String
		entry.RateAmount = numericToFloat(rateAmount)
		entry.Unit = textToPtr(unit)
		entry.EffectiveDate = textToPtr(effectiveDate)

		results = append(results, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate rate entries: %w", err)
	}

	if len(results) == 0 {
		// The page is past the last entry
		if total, err = s.count(ctx, countRateEntries, filter); err != nil {
			return nil, fmt.Errorf("unable to count rate entries: %w", err)
		}
	}

	return &types.Page[*types.RateEntry]{
		Results: results,
		Total:   total,
	}, nil
}

func (s *Storage) ExchangeRates(
	ctx context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.ExchangeRateEntry], error) {
	var (
		filter = []any{
			ptrToText(query.Source),
			ptrToText(query.Currency),
		}

		limit, offset = storage.PageBounds(query)
	)

	rows, err := s.db.Query(ctx, selectExchangeRates, append(filter, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch exchange rates: %w", err)
	}

	defer rows.Close()

	var (
		results = make([]*types.ExchangeRateEntry, 0)
		total   int64
	)

	for rows.Next() {
		var (
			entry types.ExchangeRateEntry

			tableIndex                     pgtype.Int4
			title, currency, effectiveDate pgtype.Text
			rate                           pgtype.Numeric
			raw                            []byte
			source                         string
		)

		if err = rows.Scan(
			&source,
			&entry.SourceURL,
			&tableIndex,
			&title,
			&currency,
			&rate,
			&effectiveDate,
			&raw,
			&total,
		); err != nil {
			return nil, fmt.Errorf("unable to scan exchange rate: %w", err)
		}

		if err = json.Unmarshal(raw, &entry.Raw); err != nil {
			return nil, fmt.Errorf("unable to parse raw row: %w", err)
		}

		entry.Source = types.Source(source)
		entry.TableIndex = int(tableIndex.Int32)
		entry.TableTitle = textToPtr(title)
		entry.Currency = types.Currency(currency.String)
		entry.RateToCAD = numericToFloat(rate)
		entry.EffectiveDate = textToPtr(effectiveDate)

		results = append(results, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate exchange rates: %w", err)
	}

	if len(results) == 0 {
		if total, err = s.count(ctx, countExchangeRates, filter); err != nil {
			return nil, fmt.Errorf("unable to count exchange rates: %w", err)
		}
	}

	return &types.Page[*types.ExchangeRateEntry]{
		Results: results,
		Total:   total,
	}, nil
}

func (s *Storage) Accommodations(
	ctx context.Context,
	query *types.EntryQuery,
) (*types.Page[*types.AccommodationEntry], error) {
	var (
		filter = []any{
			ptrToText(query.Source),
			ptrToText(query.City),
			ptrToText(query.Currency),
		}

		limit, offset = storage.PageBounds(query)
	)

	rows, err := s.db.Query(ctx, selectAccommodations, append(filter, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch accommodations: %w", err)
	}

	defer rows.Close()

	var (
		results = make([]*types.AccommodationEntry, 0)
		total   int64
	)

	for rows.Next() {
		var (
			entry types.AccommodationEntry

			tableIndex                           pgtype.Int4
			title, property, address, city       pgtype.Text
			province, phone, currency, effective pgtype.Text
			rateAmount                           pgtype.Numeric
			raw                                  []byte
			source                               string
		)

		if err = rows.Scan(
			&source,
			&entry.SourceURL,
			&tableIndex,
			&title,
			&property,
			&address,
			&city,
			&province,
			&phone,
			&rateAmount,
			&currency,
			&effective,
			&raw,
			&total,
		); err != nil {
			return nil, fmt.Errorf("unable to scan accommodation: %w", err)
		}

		if err = json.Unmarshal(raw, &entry.Raw); err != nil {
			return nil, fmt.Errorf("unable to parse raw row: %w", err)
		}

		entry.Source = types.Source(source)
		entry.TableIndex = int(tableIndex.Int32)
		entry.TableTitle = textToPtr(title)
		entry.PropertyName = textToPtr(property)
		entry.Address = textToPtr(address)
		entry.City = textToPtr(city)
		entry.Province = textToPtr(province)
		entry.Phone = textToPtr(phone)
		entry.RateAmount = numericToFloatPtr(rateAmount)
		entry.Currency = textToCurrency(currency)
		entry.EffectiveDate = textToPtr(effective)

		results = append(results, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate accommodations: %w", err)
	}

	if len(results) == 0 {
		if total, err = s.count(ctx, countAccommodations, filter); err != nil {
			return nil, fmt.Errorf("unable to count accommodations: %w", err)
		}
	}

	return &types.Page[*types.AccommodationEntry]{
		Results: results,
		Total:   total,
	}, nil
}

func (s *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	results, err := s.listText(ctx, listSources)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	out := make([]types.Source, 0, len(results))

	for _, src := range results {
		out = append(out, types.Source(src))
	}

	return out, nil
}

func (s *Storage) ListCountries(ctx context.Context) ([]string, error) {
	results, err := s.listText(ctx, listCountries)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch countries: %w", err)
	}

	return results, nil
}

// count runs the count query with the given filter
func (s *Storage) count(ctx context.Context, query string, filter []any) (int64, error) {
	var total int64

	if err := s.db.QueryRow(ctx, query, filter...).Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

// listText runs a single text column query
func (s *Storage) listText(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ptrToText converts the optional value to postgres text
func ptrToText[T ~string](v *T) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}

	return pgtype.Text{
		String: string(*v),
		Valid:  true,
	}
}

// textToPtr converts the postgres text to an optional value
func textToPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}

	s := t.String

	return &s
}

// textToCurrency converts the postgres text to an optional currency
func textToCurrency(t pgtype.Text) *types.Currency {
	if !t.Valid {
		return nil
	}

	c := types.Currency(t.String)

	return &c
}

// numericScale is the fractional precision of the NUMERIC(20, 6) columns
const numericScale = 6

// maxScaledNumeric bounds the unscaled value a NUMERIC(20, 6) column holds
const maxScaledNumeric = 1e20

// floatToNumeric converts the float value to postgres numeric,
// rounded to 6dp. Values the column cannot hold convert to NULL
func floatToNumeric(value float64) pgtype.Numeric {
	scaled := math.Round(value * math.Pow10(numericScale))
	if math.IsNaN(scaled) || math.Abs(scaled) >= maxScaledNumeric {
		return pgtype.Numeric{}
	}

	i, _ := big.NewFloat(scaled).Int(nil)

	return pgtype.Numeric{
		Int:   i,
		Exp:   -numericScale,
		Valid: true,
	}
}

// numericToFloat converts the postgres value to float
func numericToFloat(value pgtype.Numeric) float64 {
	if !value.Valid || value.Int == nil {
		return 0
	}

	f, _ := new(big.Rat).SetInt(value.Int).Float64()

	if value.Exp > 0 {
		f *= math.Pow10(int(value.Exp))
	} else if value.Exp < 0 {
		f /= math.Pow10(int(-value.Exp))
	}

	return f
}

// numericToFloatPtr converts the nullable postgres value to an optional float
func numericToFloatPtr(value pgtype.Numeric) *float64 {
	if !value.Valid || value.Int == nil {
		return nil
	}

	f := numericToFloat(value)

	return &f
}
