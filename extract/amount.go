package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sig-0/travelrates/provider/currencies"
	"github.com/sig-0/travelrates/storage/types"
)

var (
	// amountRegex matches the first signed number in a cell,
	// with optional thousands groups and a decimal part
	amountRegex = regexp.MustCompile(`-?\d+(?:,\d{3}\b)*(?:[.,]\d+)?`)

	currencyCodeRegex = regexp.MustCompile(`\b[A-Z]{3}\b`)
)

// ParseAmount extracts the first number found in the cell value.
// Any trailing numbers in the same cell are ignored
func ParseAmount(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}

	match := amountRegex.FindString(stringify(value))
	if match == "" {
		return 0, false
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}

	return amount, true
}

// DetectCurrency resolves the currency code mentioned in the cell value.
// CAD and USD take precedence over any other 3-letter token, as the
// source tables annotate foreign amounts with their CAD equivalent
func DetectCurrency(value any, fallback *types.Currency) *types.Currency {
	if value == nil {
		return fallback
	}

	text := strings.ToUpper(stringify(value))

	switch {
	case strings.Contains(text, currencies.CAD.String()):
		return currencyPtr(currencies.CAD)
	case strings.Contains(text, currencies.USD.String()):
		return currencyPtr(currencies.USD)
	}

	if code := currencyCodeRegex.FindString(text); code != "" {
		return currencyPtr(types.Currency(code))
	}

	return fallback
}

// stringify renders the cell value as text
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case *string:
		if v == nil {
			return ""
		}

		return *v
	case interface{ String() string }:
		return v.String()
	default:
		return ""
	}
}

func currencyPtr(c types.Currency) *types.Currency {
	return &c
}
