package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures one provider.
type Config struct {
	// Provider is one of the Provider* constants. Empty disables LLM
	// features.
	Provider string

	OpenAI     ProviderConfig
	Anthropic  ProviderConfig
	Gemini     ProviderConfig
	OpenRouter ProviderConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// ProviderConfig holds credentials and model for one provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string // OpenAI-compatible providers only
}

// RetryConfig controls backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns defaults with no provider selected.
func DefaultConfig() Config {
	return Config{
		OpenAI:     ProviderConfig{Model: "gpt-4o-mini"},
		Anthropic:  ProviderConfig{Model: "claude-haiku"},
		Gemini:     ProviderConfig{Model: "gemini-flash"},
		OpenRouter: ProviderConfig{Model: "openai/gpt-4o-mini", BaseURL: defaultOpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 90 * time.Second,
	}
}

// envPrefix namespaces every variable read by ConfigFromEnv.
const envPrefix = "PIDRUCHNYK_"

// section returns the provider block for name, or nil.
func (c *Config) section(name string) *ProviderConfig {
	switch name {
	case ProviderOpenAI:
		return &c.OpenAI
	case ProviderAnthropic:
		return &c.Anthropic
	case ProviderGemini:
		return &c.Gemini
	case ProviderOpenRouter:
		return &c.OpenRouter
	}
	return nil
}

// ConfigFromEnv applies PIDRUCHNYK_LLM_PROVIDER and the per-provider
// PIDRUCHNYK_<NAME>_API_KEY, _MODEL and _BASE_URL variables over the
// defaults. Without PIDRUCHNYK_LLM_PROVIDER it falls back to DiscoverConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	for _, name := range []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter} {
		sec := cfg.section(name)
		key := envPrefix + strings.ToUpper(name)
		if v := os.Getenv(key + "_API_KEY"); v != "" {
			sec.APIKey = v
		}
		if v := os.Getenv(key + "_MODEL"); v != "" {
			sec.Model = v
		}
		if v := os.Getenv(key + "_BASE_URL"); v != "" {
			sec.BaseURL = v
		}
	}

	if p := os.Getenv(envPrefix + "LLM_PROVIDER"); p != "" {
		cfg.Provider = p
		return cfg
	}
	if name, key, ok := discover(); ok {
		cfg.Provider = name
		if sec := cfg.section(name); sec.APIKey == "" {
			sec.APIKey = key
		}
	}
	return cfg
}

// DiscoverConfig checks the vendors' conventional API key variables
// (OpenAI, Anthropic, Gemini, OpenRouter in that order) and returns a
// config for the first one set.
func DiscoverConfig() (Config, bool) {
	name, key, ok := discover()
	if !ok {
		return Config{}, false
	}
	cfg := DefaultConfig()
	cfg.Provider = name
	cfg.section(name).APIKey = key
	return cfg, true
}

func discover() (name, key string, ok bool) {
	for _, c := range []struct{ name, env string }{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderGemini, "GEMINI_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
	} {
		if k := os.Getenv(c.env); k != "" {
			return c.name, k, true
		}
	}
	return "", "", false
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != ""
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "", ProviderMock:
		return nil
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter:
		if c.section(c.Provider).APIKey == "" {
			return fmt.Errorf("%s%s_API_KEY is required for the %s provider",
				envPrefix, strings.ToUpper(c.Provider), c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}
