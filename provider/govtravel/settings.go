package govtravel

import (
	"time"

	"github.com/sig-0/travelrates/storage/types"
)

const (
	DefaultUserAgent   = "GovTravelScraper/1.0 (+https://example.com)"
	DefaultTimeout     = time.Minute
	DefaultRetries     = 3
	DefaultBackoffStep = time.Second
	DefaultInterval    = time.Hour * 24
)

// Settings are the scrape settings shared by every source of a run.
// The value is built once at startup and passed around by value
type Settings struct {
	UserAgent   string
	Timeout     time.Duration // single request timeout
	Retries     int           // retries after the first attempt
	BackoffStep time.Duration // the n-th retry waits n * BackoffStep
	Pause       time.Duration // politeness delay between page fetches and table steps
	Interval    time.Duration // scheduled refresh interval
}

// DefaultSettings returns the default scrape settings
func DefaultSettings() Settings {
	return Settings{
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		Retries:     DefaultRetries,
		BackoffStep: DefaultBackoffStep,
		Pause:       0,
		Interval:    DefaultInterval,
	}
}

// DefaultSources returns the fixed set of government travel sources,
// in scrape order
func DefaultSources() []types.SourceConfig {
	return []types.SourceConfig{
		{
			Name:               types.SourceInternational,
			URL:                "https://www.njc-cnm.gc.ca/directive/app_d.php?lang=en",
			AlphabetNavigation: true,
		},
		{
			Name: types.SourceDomestic,
			URL:  "https://www.njc-cnm.gc.ca/directive/d10/v325/s978/en",
		},
		{
			Name: types.SourceAccommodations,
			URL:  "https://rehelv-acrd.tpsgc-pwgsc.gc.ca/lth-crl-eng.aspx",
		},
	}
}
