package extract

import (
	"regexp"
	"strings"

	"github.com/sig-0/travelrates/storage/types"
)

// titleCurrencyRegex matches headings like "Albania - Currency: Euro (EUR)"
var titleCurrencyRegex = regexp.MustCompile(`Currency:\s*[^(]+\(([A-Z]{3})\)`)

// ExtractCurrencyFromTitle returns the currency code stated in the table title, if any
func ExtractCurrencyFromTitle(title *string) *types.Currency {
	if title == nil {
		return nil
	}

	match := titleCurrencyRegex.FindStringSubmatch(*title)
	if len(match) < 2 {
		return nil
	}

	return currencyPtr(types.Currency(match[1]))
}

// ExtractCountryFromTitle returns the country name leading the table title.
// The spaced " - " delimiter is preferred, so hyphenated names
// like "Guinea-Bissau" are kept whole
func ExtractCountryFromTitle(title *string) *string {
	if title == nil {
		return nil
	}

	idx := strings.Index(*title, " - ")
	if idx == -1 {
		idx = strings.Index(*title, "-")
	}

	if idx == -1 {
		return nil
	}

	country := strings.TrimSpace((*title)[:idx])
	if country == "" {
		return nil
	}

	return &country
}
