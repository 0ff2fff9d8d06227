package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so TOML duration strings ("200ms", "72h")
// decode through encoding.TextUnmarshaler; go-toml does not decode
// strings into time.Duration directly.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Logging     LoggingConfig `toml:"logging"`
	Storage     StorageConfig `toml:"storage"`
	PlacesAPI   PlacesConfig  `toml:"places_api"`
	Scrape      ScrapeConfig  `toml:"scrape"`
	License     LicenseConfig `toml:"license"`
	Jobs        JobsConfig    `toml:"jobs"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// PlacesConfig contains Google Places API configuration.
// The API key itself is supplied per scrape request, never from config.
type PlacesConfig struct {
	BaseURL        string   `toml:"base_url"`         // Google Maps API base URL
	RateLimit      Duration `toml:"rate_limit"`       // Minimum time between API requests
	RequestTimeout Duration `toml:"request_timeout"`  // HTTP request timeout
	MaxPages       int      `toml:"max_pages"`        // Max result pages fetched per search
	PageTokenDelay Duration `toml:"page_token_delay"` // Wait before a next_page_token becomes usable
}

// ScrapeConfig contains scrape job behavior configuration
type ScrapeConfig struct {
	DefaultRadius int `toml:"default_radius"` // Search radius in meters when the request omits one
	MaxRows       int `toml:"max_rows"`       // Row cap per job result set
}

// LicenseConfig contains Lemon Squeezy license validation configuration.
// Licensing is enabled only when api_key, store_id and checkout_url are all set.
type LicenseConfig struct {
	APIKey         string   `toml:"api_key"`
	StoreID        string   `toml:"store_id"`
	CheckoutURL    string   `toml:"checkout_url"`
	BaseURL        string   `toml:"base_url"`        // Lemon Squeezy API base URL
	CacheTTL       Duration `toml:"cache_ttl"`       // How long a validation result stays cached
	RequestTimeout Duration `toml:"request_timeout"` // HTTP request timeout
}

// JobsConfig contains job retention configuration
type JobsConfig struct {
	Retention       Duration `toml:"retention"`        // How long finished jobs and artifacts are kept
	CleanupSchedule string   `toml:"cleanup_schedule"` // Cron schedule for expired-job eviction
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in reperio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		PlacesAPI: PlacesConfig{
			BaseURL:        "https://maps.googleapis.com",
			RateLimit:      Duration(200 * time.Millisecond), // respects Google API quotas
			RequestTimeout: Duration(30 * time.Second),
			MaxPages:       3,
			PageTokenDelay: Duration(2 * time.Second), // Google needs ~2s before a page token is valid
		},
		Scrape: ScrapeConfig{
			DefaultRadius: 3000,
			MaxRows:       500,
		},
		License: LicenseConfig{
			BaseURL:        "https://api.lemonsqueezy.com",
			CacheTTL:       Duration(72 * time.Hour),
			RequestTimeout: Duration(15 * time.Second),
		},
		Jobs: JobsConfig{
			Retention:       Duration(2 * time.Hour),
			CleanupSchedule: "*/15 * * * *",
		},
	}
}

// LoadFromFiles loads configuration from defaults, then merges each config
// file in order (later files override earlier ones), then applies
// environment variable overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("REPERIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("REPERIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("REPERIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("REPERIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("REPERIO_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitCSV(output)
	}

	if badgerPath := os.Getenv("REPERIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if rateLimit := os.Getenv("REPERIO_PLACES_RATE_LIMIT"); rateLimit != "" {
		if d, err := time.ParseDuration(rateLimit); err == nil {
			config.PlacesAPI.RateLimit = Duration(d)
		}
	}
	if timeout := os.Getenv("REPERIO_PLACES_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.PlacesAPI.RequestTimeout = Duration(d)
		}
	}

	if maxRows := os.Getenv("REPERIO_SCRAPE_MAX_ROWS"); maxRows != "" {
		if n, err := strconv.Atoi(maxRows); err == nil && n > 0 {
			config.Scrape.MaxRows = n
		}
	}

	if apiKey := os.Getenv("REPERIO_LICENSE_API_KEY"); apiKey != "" {
		config.License.APIKey = apiKey
	}
	if storeID := os.Getenv("REPERIO_LICENSE_STORE_ID"); storeID != "" {
		config.License.StoreID = storeID
	}
	if checkoutURL := os.Getenv("REPERIO_LICENSE_CHECKOUT_URL"); checkoutURL != "" {
		config.License.CheckoutURL = checkoutURL
	}

	if retention := os.Getenv("REPERIO_JOBS_RETENTION"); retention != "" {
		if d, err := time.ParseDuration(retention); err == nil {
			config.Jobs.Retention = Duration(d)
		}
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
