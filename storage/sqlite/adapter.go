package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sig-0/travelrates/storage"
	"github.com/sig-0/travelrates/storage/types"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Storage is the SQLite harvest store
type Storage struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path,
// and makes sure the schema is in place
func Open(ctx context.Context, path string) (*Storage, error) {
	dsn := path

	if path != MemoryPath {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("unable to create database directory: %w", err)
		}

		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// SQLite only supports one writer, and an in-memory
	// database only lives as long as its connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

// New creates a new SQLite store over an open database
func New(ctx context.Context, db *sql.DB) (*Storage, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("unable to create tables: %w", err)
	}

	return &Storage{
		db: db,
	}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
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
			table.Index,
			nullable(table.Title),
			string(data),
		})
	}

	return s.insertBatch(ctx, insertRawTable, batch)
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
			entry.TableIndex,
			nullable(entry.TableTitle),
			nullable(entry.Country),
			nullable(entry.City),
			nullable(entry.Province),
			nullable(entry.Currency),
			entry.RateType,
			entry.RateAmount,
			nullable(entry.Unit),
			nullable(entry.EffectiveDate),
			string(raw),
		})
	}

	return s.insertBatch(ctx, insertRateEntry, batch)
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
			entry.TableIndex,
			nullable(entry.TableTitle),
			entry.Currency.String(),
			entry.RateToCAD,
			nullable(entry.EffectiveDate),
			string(raw),
		})
	}

	return s.insertBatch(ctx, insertExchangeRate, batch)
}

func (s *Storage) SaveAccommodations(ctx context.Context, entries []*types.AccommodationEntry) error {
	batch := make([][]any, 0, len(entries))

	for _, entry := range entries {
		raw, err := json.Marshal(entry.Raw)
		if err != nil {
			return fmt.Errorf("unable to serialize raw row: %w", err)
		}

		var rateAmount any
		if entry.RateAmount != nil {
			rateAmount = *entry.RateAmount
		}

		batch = append(batch, []any{
			entry.Source.String(),
			entry.SourceURL,
			entry.TableIndex,
			nullable(entry.TableTitle),
			nullable(entry.PropertyName),
			nullable(entry.Address),
			nullable(entry.City),
			nullable(entry.Province),
			nullable(entry.Phone),
			rateAmount,
			nullable(entry.Currency),
			nullable(entry.EffectiveDate),
			string(raw),
		})
	}

	return s.insertBatch(ctx, insertAccommodation, batch)
}

// insertBatch runs the insert for every batch item, in a single transaction
func (s *Storage) insertBatch(ctx context.Context, query string, batch [][]any) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("unable to prepare insert: %w", err)
	}

	defer stmt.Close()

	for _, args := range batch {
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("unable to insert batch item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
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
			nullable(query.Source),
			nullable(query.Country),
			nullable(query.City),
			nullable(query.Currency),
		}

		limit, offset = storage.PageBounds(query)
	)

	var total int64
	if err := s.db.QueryRowContext(ctx, countRateEntries, filter...).Scan(&total); err != nil {
		return nil, fmt.Errorf("unable to count rate entries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, selectRateEntries, append(filter, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rate entries: %w", err)
	}

	defer rows.Close()

	results := make([]*types.RateEntry, 0)

	for rows.Next() {
		var (
			entry types.RateEntry

			source                                         string
			tableIndex                                     sql.NullInt64
			title, country, city, province, currency, unit sql.NullString
			rateType, effectiveDate                        sql.NullString
			rateAmount                                     sql.NullFloat64
			raw                                            []byte
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
		); err != nil {
			return nil, fmt.Errorf("unable to scan rate entry: %w", err)
		}

		if err = json.Unmarshal(raw, &entry.Raw); err != nil {
			return nil, fmt.Errorf("unable to parse raw row: %w", err)
		}

		entry.Source = types.Source(source)
		entry.TableIndex = int(tableIndex.Int64)
		entry.TableTitle = stringPtr(title)
		entry.Country = stringPtr(country)
		entry.City = stringPtr(city)
		entry.Province = stringPtr(province)
		entry.Currency = currencyPtr(currency)
		entry.RateType = rateType.String
		entry.RateAmount = rateAmount.Float64
		entry.Unit = stringPtr(unit)
		entry.EffectiveDate = stringPtr(effectiveDate)

		results = append(results, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate rate entries: %w", err)
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
			nullable(query.Source),
			nullable(query.Currency),
		}

		limit, offset = storage.PageBounds(query)
	)

	var total int64
	if err := s.db.QueryRowContext(ctx, countExchangeRates, filter...).Scan(&total); err != nil {
		return nil, fmt.Errorf("unable to count exchange rates: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, selectExchangeRates, append(filter, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch exchange rates: %w", err)
	}

	defer rows.Close()

	results := make([]*types.ExchangeRateEntry, 0)

	for rows.Next() {
		var (
			entry types.ExchangeRateEntry

			source                         string
			tableIndex                     sql.NullInt64
			title, currency, effectiveDate sql.NullString
			rate                           sql.NullFloat64
			raw                            []byte
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
		); err != nil {
			return nil, fmt.Errorf("unable to scan exchange rate: %w", err)
		}

		if err = json.Unmarshal(raw, &entry.Raw); err != nil {
			return nil, fmt.Errorf("unable to parse raw row: %w", err)
		}

		entry.Source = types.Source(source)
		entry.TableIndex = int(tableIndex.Int64)
		entry.TableTitle = stringPtr(title)
		entry.Currency = types.Currency(currency.String)
		entry.RateToCAD = rate.Float64
		entry.EffectiveDate = stringPtr(effectiveDate)

		results = append(results, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate exchange rates: %w", err)
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
			nullable(query.Source),
			nullable(query.City),
			nullable(query.Currency),
		}

		limit, offset = storage.PageBounds(query)
	)

	var total int64
	if err := s.db.QueryRowContext(ctx, countAccommodations, filter...).Scan(&total); err != nil {
		return nil, fmt.Errorf("unable to count accommodations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, selectAccommodations, append(filter, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch accommodations: %w", err)
	}

	defer rows.Close()

	results := make([]*types.AccommodationEntry, 0)

	for rows.Next() {
		var (
			entry types.AccommodationEntry

			source                               string
			tableIndex                           sql.NullInt64
			title, property, address, city       sql.NullString
			province, phone, currency, effective sql.NullString
			rateAmount                           sql.NullFloat64
			raw                                  []byte
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
		); err != nil {
			return nil, fmt.Errorf("unable to scan accommodation: %w", err)
		}

		if err = json.Unmarshal(raw, &entry.Raw); err != nil {
			return nil, fmt.Errorf("unable to parse raw row: %w", err)
		}

		entry.Source = types.Source(source)
		entry.TableIndex = int(tableIndex.Int64)
		entry.TableTitle = stringPtr(title)
		entry.PropertyName = stringPtr(property)
		entry.Address = stringPtr(address)
		entry.City = stringPtr(city)
		entry.Province = stringPtr(province)
		entry.Phone = stringPtr(phone)
		entry.Currency = currencyPtr(currency)
		entry.EffectiveDate = stringPtr(effective)

		if rateAmount.Valid {
			amount := rateAmount.Float64
			entry.RateAmount = &amount
		}

		results = append(results, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate accommodations: %w", err)
	}

	return &types.Page[*types.AccommodationEntry]{
		Results: results,
		Total:   total,
	}, nil
}

func (s *Storage) ListSources(ctx context.Context) ([]types.Source, error) {
	values, err := s.listStrings(ctx, listSources)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch sources: %w", err)
	}

	out := make([]types.Source, 0, len(values))

	for _, v := range values {
		out = append(out, types.Source(v))
	}

	return out, nil
}

func (s *Storage) ListCountries(ctx context.Context) ([]string, error) {
	values, err := s.listStrings(ctx, listCountries)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch countries: %w", err)
	}

	return values, nil
}

// listStrings runs a single text column query
func (s *Storage) listStrings(ctx context.Context, query string) ([]string, error) {
	queryCtx, cancelFn := context.WithTimeout(ctx, time.Second*10)
	defer cancelFn()

	rows, err := s.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]string, 0)

	for rows.Next() {
		var v string
		if err = rows.Scan(&v); err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, rows.Err()
}

// nullable converts the optional text value to a query argument
func nullable[T ~string](v *T) any {
	if v == nil {
		return nil
	}

	return string(*v)
}

// stringPtr converts the nullable column to an optional value
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}

	s := ns.String

	return &s
}

// currencyPtr converts the nullable column to an optional currency
func currencyPtr(ns sql.NullString) *types.Currency {
	if !ns.Valid {
		return nil
	}

	c := types.Currency(ns.String)

	return &c
}
