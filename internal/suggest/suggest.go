// Package suggest asks an LLM for new topics, questions and theory and
// merges the selected suggestions into existing content.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/llm"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// Purpose labels recorded with every LLM request.
const (
	PurposeTopics    = "topic-suggest"
	PurposeQuestions = "question-suggest"
	PurposeTheory    = "theory-suggest"
)

var (
	// ErrNoProvider is returned by Generate operations when no LLM is
	// configured.
	ErrNoProvider = errors.New("no LLM provider configured")

	ErrUnknownLevel    = errors.New("unknown level")
	ErrNoCorrectAnswer = errors.New("question has no correct answer")
	ErrTooFewAnswers   = errors.New("question needs at least two answers")
	ErrEmptyText       = errors.New("ukrainian text is empty")
)

// SuggestionError points at the offending item of an Apply batch.
type SuggestionError struct {
	Index int
	Field string
	Err   error
}

func (e *SuggestionError) Error() string {
	return fmt.Sprintf("suggestion %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *SuggestionError) Unwrap() error { return e.Err }

// Config tunes generation.
type Config struct {
	TopicMaxTokens    int
	QuestionMaxTokens int
	TheoryMaxTokens   int
	Temperature       float64
}

// DefaultConfig returns the generation defaults.
func DefaultConfig() Config {
	return Config{
		TopicMaxTokens:    2048,
		QuestionMaxTokens: 4096,
		TheoryMaxTokens:   8192,
		Temperature:       0.7,
	}
}

// ApplyResult counts what an Apply call changed.
type ApplyResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	IDs     []string `json:"ids"`
}

// Service runs suggestion flows. A nil provider disables generation but
// Apply operations keep working.
type Service struct {
	store    *store.Store
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(s *store.Store, provider llm.Provider, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, provider: provider, cfg: cfg, logger: logger}
}

// Enabled reports whether Generate operations can run.
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// generate runs one structured LLM call and decodes the reply into out.
// It must not be called inside a store transaction.
func (s *Service) generate(ctx context.Context, purpose string, req llm.Request, out any) error {
	if s.provider == nil {
		return ErrNoProvider
	}
	req.Temperature = s.cfg.Temperature
	resp, err := s.provider.Generate(llm.WithPurpose(ctx, purpose), req)
	if err != nil {
		return fmt.Errorf("%s: %w", purpose, err)
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("%s: %w", purpose, err)
	}
	return nil
}

// keys returns the dedup keys of a bilingual text, one per non-empty
// language.
func keys(t content.Text) []string {
	var out []string
	if k := content.Normalize(t.UK); k != "" {
		out = append(out, "uk:"+k)
	}
	if k := content.Normalize(t.EN); k != "" {
		out = append(out, "en:"+k)
	}
	return out
}

// index maps dedup keys to the id of the entity that owns them.
type index map[string]string

func (ix index) add(t content.Text, id string) {
	for _, k := range keys(t) {
		if _, ok := ix[k]; !ok {
			ix[k] = id
		}
	}
}

func (ix index) lookup(t content.Text) (string, bool) {
	for _, k := range keys(t) {
		if id, ok := ix[k]; ok {
			return id, true
		}
	}
	return "", false
}

// batch tracks keys seen earlier in one suggestion list.
type batch map[string]bool

// seen reports whether t repeats an earlier item and records its keys.
func (b batch) seen(t content.Text) bool {
	ks := keys(t)
	dup := false
	for _, k := range ks {
		if b[k] {
			dup = true
		}
	}
	for _, k := range ks {
		b[k] = true
	}
	return dup
}

func userRequest(prompt string, schema *llm.Schema, maxTokens int) llm.Request {
	return llm.UserPrompt(systemPrompt, prompt, schema, maxTokens)
}
