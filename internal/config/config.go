// Package config assembles service settings from defaults, an optional env
// file and PIDRUCHNYK_* environment variables. Command-line flags are
// applied on top by cmd.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/pidruchnyk/internal/llm"
	"github.com/abhisek/pidruchnyk/internal/media"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// Media backends.
const (
	MediaLocal = "local"
	MediaB2    = "b2"
)

// DefaultEnvFile is loaded when present and no other file is named.
const DefaultEnvFile = ".env"

// Config is the complete service configuration.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration

	DB store.Config

	SessionPath  string
	SessionTTL   time.Duration
	CookieSecure bool

	CORSOrigins []string

	// CacheTTL bounds how long public GET responses are reused. Zero
	// disables the cache.
	CacheTTL time.Duration

	Media MediaConfig
	LLM   llm.Config

	LogLevel  string
	LogFormat string
}

// MediaConfig selects where cover images go.
type MediaConfig struct {
	Backend string
	Dir     string
	BaseURL string
	B2      media.B2Config
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:            ":8080",
		ShutdownTimeout: 15 * time.Second,
		DB:              store.Config{Driver: store.DriverSQLite, DSN: "data/pidruchnyk.db"},
		SessionPath:     "data/sessions.db",
		SessionTTL:      30 * 24 * time.Hour,
		CacheTTL:        5 * time.Minute,
		Media: MediaConfig{
			Backend: MediaLocal,
			Dir:     "data/media",
			BaseURL: "/media",
		},
		LLM:       llm.DefaultConfig(),
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads envFile (or DefaultEnvFile when it exists) into the process
// environment without overriding variables already set, then builds the
// config from the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", DefaultEnvFile, err)
	}
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

const prefix = "PIDRUCHNYK_"

// ApplyEnv overrides c with the PIDRUCHNYK_* variables that are set.
func (c *Config) ApplyEnv() error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(prefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(prefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", prefix, name, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(prefix + name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", prefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("ADDR", &c.Addr)
	dur("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	str("DB_DRIVER", &c.DB.Driver)
	str("DB", &c.DB.DSN)
	str("SESSION_DB", &c.SessionPath)
	dur("SESSION_TTL", &c.SessionTTL)
	boolean("COOKIE_SECURE", &c.CookieSecure)
	dur("CACHE_TTL", &c.CacheTTL)
	if v := os.Getenv(prefix + "CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	str("MEDIA_BACKEND", &c.Media.Backend)
	str("MEDIA_DIR", &c.Media.Dir)
	str("MEDIA_BASE_URL", &c.Media.BaseURL)
	str("B2_ACCOUNT_ID", &c.Media.B2.AccountID)
	str("B2_APP_KEY", &c.Media.B2.AppKey)
	str("B2_BUCKET", &c.Media.B2.Bucket)
	str("B2_PUBLIC_URL", &c.Media.B2.PublicURL)

	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	llmCfg := llm.ConfigFromEnv()
	dur("LLM_TIMEOUT", &llmCfg.Timeout)
	c.LLM = llmCfg
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every missing or inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	switch c.DB.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("database DSN is empty"))
	}
	if c.SessionPath == "" {
		errs = append(errs, errors.New("session database path is empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session TTL must be positive"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("cache TTL must not be negative"))
	}
	switch c.Media.Backend {
	case MediaLocal:
		if c.Media.Dir == "" {
			errs = append(errs, errors.New("media directory is empty"))
		}
	case MediaB2:
		if c.Media.B2.AccountID == "" || c.Media.B2.AppKey == "" || c.Media.B2.Bucket == "" {
			errs = append(errs, errors.New("b2 media backend needs PIDRUCHNYK_B2_ACCOUNT_ID, PIDRUCHNYK_B2_APP_KEY and PIDRUCHNYK_B2_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown media backend %q", c.Media.Backend))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("log format must be json or text, got %q", c.LogFormat))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// NewLogger builds the slog logger described by LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
