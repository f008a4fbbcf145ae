package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pidruchnyk/internal/llm"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// clearEnv unsets every variable the config reads for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, prefix) || strings.HasSuffix(name, "_API_KEY") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PIDRUCHNYK_ADDR", ":9000")
	t.Setenv("PIDRUCHNYK_DB_DRIVER", "postgres")
	t.Setenv("PIDRUCHNYK_DB", "postgres://localhost/pidruchnyk")
	t.Setenv("PIDRUCHNYK_SESSION_TTL", "2h")
	t.Setenv("PIDRUCHNYK_COOKIE_SECURE", "true")
	t.Setenv("PIDRUCHNYK_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PIDRUCHNYK_LLM_PROVIDER", "mock")
	t.Setenv("PIDRUCHNYK_LLM_TIMEOUT", "30s")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, store.Config{Driver: store.DriverPostgres, DSN: "postgres://localhost/pidruchnyk"}, cfg.DB)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, llm.ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PIDRUCHNYK_SESSION_TTL", "forever")
	t.Setenv("PIDRUCHNYK_COOKIE_SECURE", "maybe")

	cfg := Default()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PIDRUCHNYK_SESSION_TTL")
	assert.Contains(t, err.Error(), "PIDRUCHNYK_COOKIE_SECURE")
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PIDRUCHNYK_ADDR=:7000\nPIDRUCHNYK_LOG_FORMAT=text\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PIDRUCHNYK_ADDR")
		os.Unsetenv("PIDRUCHNYK_LOG_FORMAT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "text", cfg.LogFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err, "an explicitly named file must exist")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"driver", func(c *Config) { c.DB.Driver = "mysql" }, "unsupported database driver"},
		{"b2 credentials", func(c *Config) { c.Media.Backend = MediaB2 }, "PIDRUCHNYK_B2_BUCKET"},
		{"media backend", func(c *Config) { c.Media.Backend = "s3" }, "unknown media backend"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"llm key", func(c *Config) { c.LLM.Provider = llm.ProviderOpenAI; c.LLM.OpenAI.APIKey = "" }, "API_KEY"},
		{"session ttl", func(c *Config) { c.SessionTTL = 0 }, "session TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "warn"
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
