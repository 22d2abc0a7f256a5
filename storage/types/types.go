package types

type Currency string

func (c Currency) String() string {
	return string(c)
}

type Source string

const (
	SourceInternational  Source = "international"  // NJC Appendix D (per country)
	SourceDomestic       Source = "domestic"       // NJC Appendix C (Canada and USA)
	SourceAccommodations Source = "accommodations" // PWGSC accommodation directory
)

func (s Source) String() string {
	return string(s)
}

// SourceConfig describes a single scraped source
type SourceConfig struct {
	Name Source `json:"name" toml:"name"`
	URL  string `json:"url"  toml:"url"`

	// AlphabetNavigation marks sources that split their tables
	// across one page per letter (A-Z)
	AlphabetNavigation bool `json:"alphabet_navigation" toml:"alphabet_navigation"`
}

// DefaultCurrency is the currency assumed for tables that don't state one.
// Only Canadian sources have an implicit currency
func (s SourceConfig) DefaultCurrency() *Currency {
	switch s.Name {
	case SourceDomestic, SourceAccommodations:
		c := Currency("CAD")

		return &c
	default:
		return nil
	}
}

// HasAccommodations returns a flag indicating if the source lists lodging
func (s SourceConfig) HasAccommodations() bool {
	return s.Name == SourceAccommodations
}

// RawTable is a single table as found on a source page
type RawTable struct {
	Title *string `json:"title"`
	Rows  []Row   `json:"rows"`
	Index int     `json:"table_index"`
}

// RateEntry is a single per-diem amount (one row, one rate column)
type RateEntry struct {
	Source        Source    `json:"source"`
	SourceURL     string    `json:"source_url"`
	TableTitle    *string   `json:"table_title"`
	Country       *string   `json:"country"`
	City          *string   `json:"city"`
	Province      *string   `json:"province"`
	Currency      *Currency `json:"currency"`
	RateType      string    `json:"rate_type"`
	RateAmount    float64   `json:"rate_amount"`
	Unit          *string   `json:"unit"`
	EffectiveDate *string   `json:"effective_date"`
	Raw           Row       `json:"raw"`
	TableIndex    int       `json:"table_index"`
}

// ExchangeRateEntry is a stated conversion rate to CAD
type ExchangeRateEntry struct {
	Source        Source   `json:"source"`
	SourceURL     string   `json:"source_url"`
	TableTitle    *string  `json:"table_title"`
	Currency      Currency `json:"currency"`
	RateToCAD     float64  `json:"rate_to_cad"`
	EffectiveDate *string  `json:"effective_date"`
	Raw           Row      `json:"raw"`
	TableIndex    int      `json:"table_index"`
}

// AccommodationEntry is a single lodging listing
type AccommodationEntry struct {
	Source        Source    `json:"source"`
	SourceURL     string    `json:"source_url"`
	TableTitle    *string   `json:"table_title"`
	PropertyName  *string   `json:"property_name"`
	Address       *string   `json:"address"`
	City          *string   `json:"city"`
	Province      *string   `json:"province"`
	Phone         *string   `json:"phone"`
	RateAmount    *float64  `json:"rate_amount"`
	Currency      *Currency `json:"currency"`
	EffectiveDate *string   `json:"effective_date"`
	Raw           Row       `json:"raw"`
	TableIndex    int       `json:"table_index"`
}

// Harvest is the complete output of a single source run
type Harvest struct {
	Source         SourceConfig          `json:"source"`
	Tables         []*RawTable           `json:"tables"`
	Rates          []*RateEntry          `json:"rates"`
	ExchangeRates  []*ExchangeRateEntry  `json:"exchange_rates"`
	Accommodations []*AccommodationEntry `json:"accommodations"`
}

// EntryQuery filters stored entries. Filters that don't apply
// to an entry kind are ignored
type EntryQuery struct {
	Source   *Source   `json:"source"`
	Country  *string   `json:"country"`
	City     *string   `json:"city"`
	Currency *Currency `json:"currency"`
	Offset   int64     `json:"offset"`
	Limit    int32     `json:"limit"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}
