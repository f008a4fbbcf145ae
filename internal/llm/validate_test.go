package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name: "test-topic",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string", "minLength": 1},
				"count": map[string]any{"type": "integer", "minimum": 0},
				"lang":  map[string]any{"type": "string", "enum": []string{"uk", "en"}},
			},
			"required":             []string{"name", "count"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"Дроби","count":2,"lang":"uk"}`, false},
		{"optional omitted", `{"name":"Дроби","count":0}`, false},
		{"missing required", `{"name":"Дроби"}`, true},
		{"wrong type", `{"name":"Дроби","count":"two"}`, true},
		{"enum violation", `{"name":"Дроби","count":1,"lang":"de"}`, true},
		{"extra property", `{"name":"Дроби","count":1,"x":1}`, true},
		{"empty string", `{"name":"","count":1}`, true},
		{"not json", `{"name":`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponseNilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`anything`)); err != nil {
		t.Fatalf("nil schema should accept anything: %v", err)
	}
}

func TestCompiledSchemaIsCached(t *testing.T) {
	s := testSchema()
	a, err := compileSchema(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := compileSchema(s)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected the same compiled schema instance")
	}
}
