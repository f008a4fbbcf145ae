package llm

import (
	"context"
	"errors"
	"testing"
)

func clearLLMEnv(t *testing.T) {
	for _, k := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY",
		"PIDRUCHNYK_LLM_PROVIDER", "PIDRUCHNYK_OPENAI_API_KEY", "PIDRUCHNYK_OPENAI_MODEL",
		"PIDRUCHNYK_ANTHROPIC_API_KEY", "PIDRUCHNYK_GEMINI_API_KEY", "PIDRUCHNYK_OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("PIDRUCHNYK_LLM_PROVIDER", "openai")
	t.Setenv("PIDRUCHNYK_OPENAI_API_KEY", "sk-test")
	t.Setenv("PIDRUCHNYK_OPENAI_MODEL", "gpt-4.1-mini")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestConfigFromEnvDiscovers(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderAnthropic || cfg.Anthropic.APIKey != "a-key" {
		t.Fatalf("expected anthropic to win discovery order, got %+v", cfg)
	}
}

func TestConfigFromEnvDisabled(t *testing.T) {
	clearLLMEnv(t)
	cfg := ConfigFromEnv()
	if cfg.Enabled() {
		t.Fatalf("expected no provider, got %q", cfg.Provider)
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("discovery should find nothing")
	}
	if _, err := New(context.Background(), cfg, nil, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"none", func(c *Config) {}, false},
		{"mock", func(c *Config) { c.Provider = ProviderMock }, false},
		{"openai without key", func(c *Config) { c.Provider = ProviderOpenAI }, true},
		{"gemini with key", func(c *Config) { c.Provider = ProviderGemini; c.Gemini.APIKey = "k" }, false},
		{"unknown", func(c *Config) { c.Provider = "llama" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewMockProviderChain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := New(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("model = %q", p.ModelID())
	}
}
