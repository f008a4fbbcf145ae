package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/pidruchnyk/internal/store"
)

type recordingEvents struct {
	store.EventRepo // unused methods panic

	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, d)
	return r.err
}

func TestLoggingRecordsEvents(t *testing.T) {
	rec := &recordingEvents{}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"ok":true}`), Usage: Usage{InputTokens: 12, OutputTokens: 3}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
	)
	p := WithLogging(mock, "openai", rec, nil)
	ctx := WithPurpose(context.Background(), "topic-suggest")

	if _, err := p.Generate(ctx, UserPrompt("system text", "user text", nil, 64)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error")
	}

	if len(rec.events) != 2 {
		t.Fatalf("events = %d", len(rec.events))
	}
	ok := rec.events[0]
	if !ok.Success || ok.Provider != "openai" || ok.Purpose != "topic-suggest" || ok.InputTokens != 12 {
		t.Fatalf("unexpected success event: %+v", ok)
	}
	if !strings.Contains(ok.RequestBody, "[system]\nsystem text") || !strings.Contains(ok.RequestBody, "[user]\nuser text") {
		t.Fatalf("request body not captured: %q", ok.RequestBody)
	}
	if ok.ResponseBody != `{"ok":true}` {
		t.Fatalf("response body = %q", ok.ResponseBody)
	}
	failed := rec.events[1]
	if failed.Success || !strings.Contains(failed.ErrorMessage, "rate limited") {
		t.Fatalf("unexpected failure event: %+v", failed)
	}
}

func TestLoggingIgnoresRecorderFailure(t *testing.T) {
	rec := &recordingEvents{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), "mock", rec, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("recorder failure leaked: %v", err)
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	if c == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if got := c.Cost(1_000_000, 1_000_000); got != 0.75 {
		t.Fatalf("cost = %v", got)
	}
	if LookupCost("openai/gpt-4o-mini") == nil {
		t.Fatal("vendor-prefixed IDs should resolve")
	}
	if LookupCost("made-up-model") != nil {
		t.Fatal("unknown model should have no pricing")
	}
}
