// Package config loads the bridge configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// AppName is the application directory name used for default paths.
	AppName = "mstodo"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// CallbackPath is the fixed path the authorization redirect lands on.
	CallbackPath = "/api/microsoft-todo"
)

// Config holds the bridge configuration. It is read once at startup from
// environment variables and treated as immutable afterwards.
type Config struct {
	// OAuth client registration
	ClientID     string
	ClientSecret string

	// ExternalURL is the externally reachable base URL of the bridge; the
	// authorization redirect URI is derived from it.
	ExternalURL string

	// Server
	ListenAddr  string
	MetricsAddr string

	// TokenPath is the path of the persisted token file.
	TokenPath string

	// TimeZone is the IANA zone name used when serializing due dates and
	// reminders for the provider.
	TimeZone string

	// ScanInterval is how often entities poll their task lists.
	ScanInterval time.Duration

	// SensorLists are the list names that get a count sensor entity.
	SensorLists []string
}

// Load reads the configuration from environment variables.
// Required variables that are missing are reported together in one error.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.ClientID = os.Getenv("MSTODO_CLIENT_ID")
	if cfg.ClientID == "" {
		missing = append(missing, "MSTODO_CLIENT_ID")
	}

	cfg.ClientSecret = os.Getenv("MSTODO_CLIENT_SECRET")
	if cfg.ClientSecret == "" {
		missing = append(missing, "MSTODO_CLIENT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg.ListenAddr = getEnv("MSTODO_LISTEN_ADDR", ":8123")
	cfg.MetricsAddr = getEnv("MSTODO_METRICS_ADDR", ":9090")
	cfg.ExternalURL = strings.TrimSuffix(getEnv("MSTODO_EXTERNAL_URL", "http://localhost:8123"), "/")
	cfg.TokenPath = getEnv("MSTODO_TOKEN_FILE", filepath.Join(DefaultConfigDir(), TokenFile))
	cfg.TimeZone = getEnv("MSTODO_TIMEZONE", defaultTimeZone())

	interval, err := time.ParseDuration(getEnv("MSTODO_SCAN_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid MSTODO_SCAN_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("MSTODO_SCAN_INTERVAL must be positive, got %s", interval)
	}
	cfg.ScanInterval = interval

	if lists := os.Getenv("MSTODO_SENSOR_LISTS"); lists != "" {
		for _, name := range strings.Split(lists, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.SensorLists = append(cfg.SensorLists, name)
			}
		}
	}

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid MSTODO_TIMEZONE %q: %w", cfg.TimeZone, err)
	}

	return cfg, nil
}

// RedirectURL returns the OAuth redirect URI registered with the provider.
func (c *Config) RedirectURL() string {
	return c.ExternalURL + CallbackPath
}

// Location returns the configured time zone as a *time.Location.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func defaultTimeZone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	return "UTC"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
