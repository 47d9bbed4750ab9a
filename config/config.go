package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultMaxImageBytes = 10 << 20
	// envelopeOverhead covers the JSON around the base64 payload.
	envelopeOverhead = 4 << 10
)

type Config struct {
	Host string
	Port string

	APIKey          string
	APIURL          string
	ProviderTimeout time.Duration

	FallbackDelay   time.Duration
	EchoDelay       time.Duration
	FallbackMaxSize int
	// FallbackMaxPixels caps width*height read from the image header
	// before the local transform decodes anything.
	FallbackMaxPixels int64

	MaxImageBytes int64

	AccountCheckSchedule string
	LowCreditsThreshold  float64

	LogLevel slog.Level
	GinMode  string
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are loaded first and never override variables
// that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	e := env{lookup: lookup}
	cfg := &Config{
		Host:                 e.str("HOST", ""),
		Port:                 e.str("PORT", "8080"),
		APIKey:               strings.TrimSpace(e.str("REMOVE_BG_API_KEY", "")),
		APIURL:               e.str("REMOVE_BG_API_URL", "https://api.remove.bg/v1.0"),
		ProviderTimeout:      e.duration("PROVIDER_TIMEOUT", 30*time.Second),
		FallbackDelay:        e.duration("FALLBACK_DELAY", 2500*time.Millisecond),
		EchoDelay:            e.duration("ECHO_DELAY", 2*time.Second),
		FallbackMaxSize:      e.integer("FALLBACK_MAX_SIZE", 4096),
		FallbackMaxPixels:    int64(e.integer("FALLBACK_MAX_PIXELS", 40_000_000)),
		MaxImageBytes:        int64(e.integer("MAX_IMAGE_BYTES", DefaultMaxImageBytes)),
		AccountCheckSchedule: e.str("ACCOUNT_CHECK_SCHEDULE", "@every 1h"),
		LowCreditsThreshold:  e.decimal("LOW_CREDITS_THRESHOLD", 10),
		LogLevel:             e.level("LOG_LEVEL", slog.LevelInfo),
		GinMode:              e.str("GIN_MODE", "release"),
	}
	if len(e.errs) > 0 {
		return nil, errors.Join(e.errs...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.ProviderTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT must be positive")
	}
	if c.FallbackDelay < 0 || c.EchoDelay < 0 {
		return errors.New("FALLBACK_DELAY and ECHO_DELAY must not be negative")
	}
	if c.FallbackMaxSize < 0 {
		return errors.New("FALLBACK_MAX_SIZE must not be negative")
	}
	if c.FallbackMaxPixels <= 0 {
		return errors.New("FALLBACK_MAX_PIXELS must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return errors.New("MAX_IMAGE_BYTES must be positive")
	}
	return nil
}

func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// MaxBodyBytes is the request body limit: a base64-encoded image of
// MaxImageBytes plus the JSON envelope.
func (c *Config) MaxBodyBytes() int64 {
	return (c.MaxImageBytes+2)/3*4 + envelopeOverhead
}

// WriteTimeout must outlast a provider call or the artificial delay.
func (c *Config) WriteTimeout() time.Duration {
	return c.ProviderTimeout + max(c.FallbackDelay, c.EchoDelay) + 10*time.Second
}

type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, defaultValue string) string {
	if value, exists := e.lookup(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func (e *env) duration(key string, defaultValue time.Duration) time.Duration {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func (e *env) integer(key string, defaultValue int) int {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func (e *env) decimal(key string, defaultValue float64) float64 {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return f
}

func (e *env) level(key string, defaultValue slog.Level) slog.Level {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(value)); err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return l
}
