package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Environment variables holding the Last.fm credentials.
const (
	EnvAPIKey = "LASTFM_API_KEY"
	EnvUser   = "LASTFM_USER"
)

// ErrMissingCredentials is returned when a required environment value is
// absent or blank.
var ErrMissingCredentials = errors.New("missing Last.fm credentials")

// Config holds application configuration
type Config struct {
	// Last.fm API credentials
	LastFM LastFMConfig
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey string
	User   string
}

// Load reads configuration from the process environment.
//
// There is no config file: everything else the banner needs is a
// compile-time constant.
func Load() (*Config, error) {
	v := viper.New()

	// Bind the exact variable names rather than a prefix
	if err := v.BindEnv("lastfm.api_key", EnvAPIKey); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", EnvAPIKey, err)
	}
	if err := v.BindEnv("lastfm.user", EnvUser); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", EnvUser, err)
	}

	cfg := &Config{
		LastFM: LastFMConfig{
			APIKey: strings.TrimSpace(v.GetString("lastfm.api_key")),
			User:   strings.TrimSpace(v.GetString("lastfm.user")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports which required values are missing.
func (c *Config) Validate() error {
	var missing []string
	if c.LastFM.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.LastFM.User == "" {
		missing = append(missing, EnvUser)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return nil
}
