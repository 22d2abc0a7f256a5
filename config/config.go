package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/sig-0/travelrates/provider/govtravel"
	"github.com/sig-0/travelrates/storage/types"
)

const DefaultListenAddress = "0.0.0.0:8545"

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidUserAgent     = errors.New("invalid user agent")
	ErrInvalidRetries       = errors.New("invalid retry count")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidSource        = errors.New("invalid source")
	ErrDuplicateSource      = errors.New("duplicate source")
	ErrUnknownSource        = errors.New("unknown source")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config is the application configuration
type Config struct {
	// The HTTP API configuration
	Server ServerConfig `toml:"server"`

	// The harvest configuration
	Scrape ScrapeConfig `toml:"scrape"`
}

// ServerConfig defines the base-level server configuration
type ServerConfig struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// ScrapeConfig defines how the government sources are harvested.
// Durations are written as strings ("500ms", "24h")
type ScrapeConfig struct {
	UserAgent   string        `toml:"user_agent"`
	Timeout     time.Duration `toml:"timeout"`
	Retries     int           `toml:"retries"`
	BackoffStep time.Duration `toml:"backoff_step"`
	Pause       time.Duration `toml:"pause"`
	Interval    time.Duration `toml:"interval"`

	// The harvested sources, in harvest order
	Sources []types.SourceConfig `toml:"sources"`
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	settings := govtravel.DefaultSettings()

	return &Config{
		Server: ServerConfig{
			ListenAddress: DefaultListenAddress,
			CORSConfig:    DefaultCORSConfig(),
		},
		Scrape: ScrapeConfig{
			UserAgent:   settings.UserAgent,
			Timeout:     settings.Timeout,
			Retries:     settings.Retries,
			BackoffStep: settings.BackoffStep,
			Pause:       settings.Pause,
			Interval:    settings.Interval,
			Sources:     govtravel.DefaultSources(),
		},
	}
}

// ValidateConfig validates the application configuration
func ValidateConfig(config *Config) error {
	if err := ValidateServerConfig(&config.Server); err != nil {
		return err
	}

	return ValidateScrapeConfig(&config.Scrape)
}

// ValidateServerConfig validates the server configuration
func ValidateServerConfig(config *ServerConfig) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	return nil
}

// ValidateScrapeConfig validates the harvest configuration
func ValidateScrapeConfig(config *ScrapeConfig) error {
	if config.UserAgent == "" {
		return ErrInvalidUserAgent
	}

	if config.Retries < 0 {
		return ErrInvalidRetries
	}

	if config.Timeout <= 0 || config.Interval <= 0 {
		return fmt.Errorf("%w: timeout and interval must be positive", ErrInvalidDuration)
	}

	if config.BackoffStep < 0 || config.Pause < 0 {
		return fmt.Errorf("%w: backoff step and pause can't be negative", ErrInvalidDuration)
	}

	seen := make(map[types.Source]struct{}, len(config.Sources))

	for _, source := range config.Sources {
		if err := validateSource(source); err != nil {
			return err
		}

		if _, ok := seen[source.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, source.Name)
		}

		seen[source.Name] = struct{}{}
	}

	return nil
}

// validateSource checks the source is a known government source
// with an absolute HTTP(S) URL
func validateSource(source types.SourceConfig) error {
	switch source.Name {
	case types.SourceInternational, types.SourceDomestic, types.SourceAccommodations:
	default:
		return fmt.Errorf("%w: unsupported name %q", ErrInvalidSource, source.Name)
	}

	u, err := url.Parse(source.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s has an invalid URL %q", ErrInvalidSource, source.Name, source.URL)
	}

	return nil
}

// Settings converts the harvest configuration into fetch settings
func (c ScrapeConfig) Settings() govtravel.Settings {
	return govtravel.Settings{
		UserAgent:   c.UserAgent,
		Timeout:     c.Timeout,
		Retries:     c.Retries,
		BackoffStep: c.BackoffStep,
		Pause:       c.Pause,
		Interval:    c.Interval,
	}
}

// SelectSources returns the named sources, in configured order.
// No names selects every source
func (c ScrapeConfig) SelectSources(names []string) ([]types.SourceConfig, error) {
	if len(names) == 0 {
		return c.Sources, nil
	}

	for _, name := range names {
		known := slices.ContainsFunc(c.Sources, func(s types.SourceConfig) bool {
			return s.Name.String() == name
		})

		if !known {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
		}
	}

	selected := make([]types.SourceConfig, 0, len(names))

	for _, source := range c.Sources {
		if slices.Contains(names, source.Name.String()) {
			selected = append(selected, source)
		}
	}

	return selected, nil
}

// Read reads the configuration from the given path.
// Values missing from the file keep their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	tree, err := toml.LoadBytes(content)
	if err != nil {
		return nil, err
	}

	var cfg Config

	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg, tree)

	return &cfg, nil
}

// applyDefaults fills the configuration values missing from the file
func applyDefaults(cfg *Config, tree *toml.Tree) {
	defaults := DefaultConfig()

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = defaults.Server.ListenAddress
	}

	if cfg.Server.CORSConfig == nil {
		cfg.Server.CORSConfig = defaults.Server.CORSConfig
	}

	if cfg.Scrape.UserAgent == "" {
		cfg.Scrape.UserAgent = defaults.Scrape.UserAgent
	}

	if cfg.Scrape.Timeout == 0 {
		cfg.Scrape.Timeout = defaults.Scrape.Timeout
	}

	// An explicit zero disables retries
	if !tree.Has("scrape.retries") {
		cfg.Scrape.Retries = defaults.Scrape.Retries
	}

	if cfg.Scrape.BackoffStep == 0 {
		cfg.Scrape.BackoffStep = defaults.Scrape.BackoffStep
	}

	if cfg.Scrape.Interval == 0 {
		cfg.Scrape.Interval = defaults.Scrape.Interval
	}

	if len(cfg.Scrape.Sources) == 0 {
		cfg.Scrape.Sources = defaults.Scrape.Sources
	}
}
