package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Cell is a single column value of a table row.
// Value is either a string, a float64, or nil (empty cell)
type Cell struct {
	Value  any
	Column string
}

// Row is a table row, keyed by the original column labels.
// Column order is preserved
type Row []Cell

// Get returns the value of the given column, if any
func (r Row) Get(column string) (any, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}

	return nil, false
}

// Set sets the column value. An existing column keeps its position
func (r Row) Set(column string, value any) Row {
	for i := range r {
		if r[i].Column == column {
			r[i].Value = value

			return r
		}
	}

	return append(r, Cell{Column: column, Value: value})
}

// MarshalJSON encodes the row as a JSON object, in column order
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("unable to marshal column %q: %w", c.Column, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the row, keeping key order
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object, got %v", tok)
	}

	row := make(Row, 0)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}

		key, _ := keyTok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("unable to decode column %q: %w", key, err)
		}

		row = row.Set(key, scalarValue(raw))
	}

	*r = row

	return nil
}

// scalarValue narrows a decoded JSON value to the cell value domain
func scalarValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}

		return f
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val) //nolint:errcheck // decoded value
		return string(b)
	}
}
