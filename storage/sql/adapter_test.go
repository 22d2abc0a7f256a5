package sql

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/travelrates/provider/currencies"
	"github.com/sig-0/travelrates/storage/types"
)

// failingDB is a database that is unreachable
type failingDB struct {
	err error
}

func (f *failingDB) Begin(context.Context) (pgx.Tx, error) {
	return nil, f.err
}

func (f *failingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.err
}

func (f *failingDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{err: f.err}
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}

func TestSQL_Numeric(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name  string
		value float64
	}{
		{"whole", 150},
		{"meal", 25.5},
		{"exchange rate", 1.4567},
		{"large", 20000},
		{"zero", 0},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			n := floatToNumeric(testCase.value)

			require.True(t, n.Valid)
			assert.Equal(t, int32(-6), n.Exp)
			assert.InDelta(t, testCase.value, numericToFloat(n), 1e-9)
		})
	}

	t.Run("rounded to six decimals", func(t *testing.T) {
		t.Parallel()

		n := floatToNumeric(1.23456789)

		assert.Equal(t, "1234568", n.Int.String())
	})

	t.Run("beyond int64 when scaled", func(t *testing.T) {
		t.Parallel()

		n := floatToNumeric(9.5e12)

		require.True(t, n.Valid)
		assert.Equal(t, "9500000000000000000", n.Int.String())
		assert.InDelta(t, 9.5e12, numericToFloat(n), 1e-3)
	})

	t.Run("out of column range", func(t *testing.T) {
		t.Parallel()

		for _, value := range []float64{1e14, -1e15, math.MaxFloat64, math.NaN(), math.Inf(-1)} {
			n := floatToNumeric(value)

			assert.False(t, n.Valid)
			assert.Nil(t, numericToFloatPtr(n))
		}
	})

	t.Run("positive exponent", func(t *testing.T) {
		t.Parallel()

		n := pgtype.Numeric{Int: big.NewInt(12), Exp: 3, Valid: true}

		assert.InDelta(t, 12000.0, numericToFloat(n), 1e-9)
	})

	t.Run("null", func(t *testing.T) {
		t.Parallel()

		assert.Zero(t, numericToFloat(pgtype.Numeric{}))
		assert.Nil(t, numericToFloatPtr(pgtype.Numeric{}))

		f := numericToFloatPtr(floatToNumeric(99.99))
		require.NotNil(t, f)
		assert.InDelta(t, 99.99, *f, 1e-9)
	})
}

func TestSQL_Text(t *testing.T) {
	t.Parallel()

	t.Run("optional string", func(t *testing.T) {
		t.Parallel()

		assert.False(t, ptrToText[string](nil).Valid)

		city := "Tirana"
		text := ptrToText(&city)

		assert.Equal(t, pgtype.Text{String: "Tirana", Valid: true}, text)
		assert.Equal(t, &city, textToPtr(text))
		assert.Nil(t, textToPtr(pgtype.Text{}))
	})

	t.Run("optional currency", func(t *testing.T) {
		t.Parallel()

		eur := currencies.EUR

		text := ptrToText(&eur)

		assert.Equal(t, "EUR", text.String)
		assert.Equal(t, &eur, textToCurrency(text))
		assert.Nil(t, textToCurrency(pgtype.Text{}))
	})
}

func TestSQL_Unavailable(t *testing.T) {
	t.Parallel()

	var (
		dbErr = errors.New("connection refused")
		s     = NewStorage(&failingDB{err: dbErr})
		ctx   = context.Background()
	)

	t.Run("save", func(t *testing.T) {
		t.Parallel()

		err := s.SaveRateEntries(ctx, []*types.RateEntry{{RateType: "lunch", Raw: types.Row{}}})

		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, s.SaveAccommodations(ctx, nil))
	})

	t.Run("read", func(t *testing.T) {
		t.Parallel()

		_, err := s.RateEntries(ctx, &types.EntryQuery{})
		assert.ErrorIs(t, err, dbErr)

		_, err = s.ListSources(ctx)
		assert.ErrorIs(t, err, dbErr)
	})
}
