package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topics": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name_uk": map[string]any{"type": "string"},
						"level":   map[string]any{"type": "string", "enum": []any{"basic", "advanced"}},
					},
					"required": []string{"name_uk"},
				},
			},
		},
		"required": []any{"topics"},
	})

	if s.Type != genai.TypeObject {
		t.Fatalf("type = %s", s.Type)
	}
	topics := s.Properties["topics"]
	if topics == nil || topics.Type != genai.TypeArray {
		t.Fatalf("topics = %+v", topics)
	}
	item := topics.Items
	if item.Properties["name_uk"].Type != genai.TypeString {
		t.Fatalf("name_uk type = %s", item.Properties["name_uk"].Type)
	}
	if len(item.Properties["level"].Enum) != 2 {
		t.Fatalf("enum = %v", item.Properties["level"].Enum)
	}
	if len(item.Required) != 1 || len(s.Required) != 1 {
		t.Fatalf("required lists not converted: %v %v", item.Required, s.Required)
	}
	if len(item.PropertyOrdering) != 2 || item.PropertyOrdering[0] != "level" {
		t.Fatalf("property ordering = %v", item.PropertyOrdering)
	}
}
