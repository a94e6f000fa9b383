// Package config holds the process configuration. It is built once at
// startup and passed to the constructors that need it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NERVsystems/restaurantmcp/pkg/osm"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinTimeout is the shortest upstream timeout Validate accepts.
const MinTimeout = time.Second

// Environment variable names.
const (
	EnvPort             = "PORT"
	EnvAPIKey           = "API_KEY"
	EnvUserAgent        = "OSM_USER_AGENT"
	EnvContactEmail     = "OSM_EMAIL"
	EnvNominatimURL     = "NOMINATIM_URL"
	EnvOverpassURL      = "OVERPASS_URL"
	EnvNominatimTimeout = "NOMINATIM_TIMEOUT"
	EnvOverpassTimeout  = "OVERPASS_TIMEOUT"
	EnvMaxRadius        = "MAX_RADIUS"
	EnvLogLevel         = "LOG_LEVEL"
	EnvHTTPEnabled      = "HTTP_ENABLED"
)

// Config is the process configuration.
type Config struct {
	Port             int
	APIKey           string // empty disables API key checks on the HTTP API
	UserAgent        string
	ContactEmail     string
	NominatimURL     string
	OverpassURL      string
	NominatimTimeout time.Duration
	OverpassTimeout  time.Duration
	MaxRadius        float64
	LogLevel         string
	HTTPEnabled      bool
}

// ConfigError reports one invalid setting.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(EnvPort, 8080)
	v.SetDefault(EnvAPIKey, "")
	v.SetDefault(EnvUserAgent, osm.DefaultUserAgent)
	v.SetDefault(EnvContactEmail, "")
	v.SetDefault(EnvNominatimURL, osm.NominatimBaseURL)
	v.SetDefault(EnvOverpassURL, osm.OverpassBaseURL)
	v.SetDefault(EnvNominatimTimeout, osm.DefaultNominatimTimeout)
	v.SetDefault(EnvOverpassTimeout, osm.DefaultOverpassTimeout)
	v.SetDefault(EnvMaxRadius, 10000.0)
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvHTTPEnabled, true)
}

// Load reads the configuration from the environment. Files listed in
// envFiles are loaded first if they exist; variables already set in the
// environment win over file values.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromViper builds a Config from v without validating it.
func FromViper(v *viper.Viper) Config {
	return Config{
		Port:             v.GetInt(EnvPort),
		APIKey:           strings.TrimSpace(v.GetString(EnvAPIKey)),
		UserAgent:        strings.TrimSpace(v.GetString(EnvUserAgent)),
		ContactEmail:     strings.TrimSpace(v.GetString(EnvContactEmail)),
		NominatimURL:     strings.TrimRight(v.GetString(EnvNominatimURL), "/"),
		OverpassURL:      v.GetString(EnvOverpassURL),
		NominatimTimeout: durationSetting(v, EnvNominatimTimeout),
		OverpassTimeout:  durationSetting(v, EnvOverpassTimeout),
		MaxRadius:        v.GetFloat64(EnvMaxRadius),
		LogLevel:         strings.ToLower(strings.TrimSpace(v.GetString(EnvLogLevel))),
		HTTPEnabled:      v.GetBool(EnvHTTPEnabled),
	}
}

// durationSetting reads a duration such as "10s". A bare number is taken
// as seconds, not nanoseconds.
func durationSetting(v *viper.Viper, key string) time.Duration {
	if secs, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return v.GetDuration(key)
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}

// Validate checks every setting and returns all problems joined.
func (c Config) Validate() error {
	var errs []error
	add := func(key, format string, args ...any) {
		errs = append(errs, &ConfigError{Key: key, Message: fmt.Sprintf(format, args...)})
	}

	if c.Port < 1 || c.Port > 65535 {
		add(EnvPort, "must be between 1 and 65535, got %d", c.Port)
	}
	if c.UserAgent == "" {
		add(EnvUserAgent, "must not be empty; the OpenStreetMap usage policy requires an identifying user agent")
	}
	for _, kv := range [][2]string{{EnvNominatimURL, c.NominatimURL}, {EnvOverpassURL, c.OverpassURL}} {
		u, err := url.Parse(kv[1])
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(kv[0], "must be an absolute http(s) URL, got %q", kv[1])
		}
	}
	for _, kv := range []struct {
		key string
		d   time.Duration
	}{{EnvNominatimTimeout, c.NominatimTimeout}, {EnvOverpassTimeout, c.OverpassTimeout}} {
		if kv.d < MinTimeout {
			add(kv.key, "must be at least %s, got %s", MinTimeout, kv.d)
		}
	}
	if c.MaxRadius <= 0 {
		add(EnvMaxRadius, "must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		add(EnvLogLevel, "must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
