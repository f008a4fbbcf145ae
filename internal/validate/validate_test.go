package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pidruchnyk/internal/content"
)

type subjectBody struct {
	Slug        string       `json:"slug"`
	Name        content.Text `json:"name"`
	Description content.Text `json:"description"`
}

func TestDecodeValid(t *testing.T) {
	var got subjectBody
	err := Subject.Decode(strings.NewReader(`{"slug":"math","name":{"uk":"Математика","en":"Math"}}`), "uk", &got)
	require.NoError(t, err)
	assert.Equal(t, "math", got.Slug)
	assert.Equal(t, "Math", got.Name.EN)
}

func TestDecodeFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		body   string
		lang   string
		want   map[string]string
	}{
		{
			name:   "missing required nested",
			schema: Subject,
			body:   `{"slug":"math","name":{"en":"Math"}}`,
			lang:   "en",
			want:   map[string]string{"name.uk": "Required."},
		},
		{
			name:   "empty ukrainian name",
			schema: Subject,
			body:   `{"slug":"math","name":{"uk":""}}`,
			lang:   "uk",
			want:   map[string]string{"name.uk": "Обов'язкове поле."},
		},
		{
			name:   "blank ukrainian name",
			schema: Subject,
			body:   `{"slug":"math","name":{"uk":"   "}}`,
			lang:   "en",
			want:   map[string]string{"name.uk": "Required."},
		},
		{
			name:   "blank answer text",
			schema: Question,
			body:   `{"level_id":"l1","text":{"uk":"Питання"},"answers":[{"text":{"uk":"так"},"correct":true},{"text":{"uk":"\t "}}]}`,
			lang:   "en",
			want:   map[string]string{"answers.1.text.uk": "Required."},
		},
		{
			name:   "missing top-level fields",
			schema: Level,
			body:   `{}`,
			lang:   "en",
			want:   map[string]string{"code": "Required.", "name": "Required."},
		},
		{
			name:   "bad slug",
			schema: Subject,
			body:   `{"slug":"Math Books","name":{"uk":"М"}}`,
			lang:   "en",
			want:   map[string]string{"slug": "Value does not match the expected pattern."},
		},
		{
			name:   "unknown field",
			schema: Topic,
			body:   `{"name":{"uk":"Дроби"},"colour":"red"}`,
			lang:   "en",
			want:   map[string]string{"colour": "Unknown field."},
		},
		{
			name:   "short password",
			schema: Registration,
			body:   `{"email":"a@example.com","password":"short"}`,
			lang:   "en",
			want:   map[string]string{"password": "Must be at least 8 characters."},
		},
		{
			name:   "bad email",
			schema: Credentials,
			body:   `{"email":"nope","password":"x"}`,
			lang:   "en",
			want:   map[string]string{"email": "Invalid format."},
		},
		{
			name:   "too few answers",
			schema: Question,
			body:   `{"level_id":"l1","text":{"uk":"?"},"answers":[{"text":{"uk":"так"},"correct":true}]}`,
			lang:   "en",
			want:   map[string]string{"answers": "At least 2 item(s) required."},
		},
		{
			name:   "nested array item",
			schema: Question,
			body:   `{"level_id":"l1","text":{"uk":"?"},"answers":[{"text":{"uk":"так"}},{"text":{"en":"no"}}]}`,
			lang:   "en",
			want:   map[string]string{"answers.1.text.uk": "Required."},
		},
		{
			name:   "theory language enum",
			schema: ApplyTheory,
			body:   `{"theory":{"uk":"# Дроби"},"fields":["de"]}`,
			lang:   "en",
			want:   map[string]string{"fields.0": "Value is not allowed."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v map[string]any
			err := tt.schema.DecodeBytes([]byte(tt.body), tt.lang, &v)
			var ve *Error
			require.True(t, errors.As(err, &ve), "expected *Error, got %v", err)
			assert.Equal(t, tt.want, ve.Fields)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	var v map[string]any
	err := Subject.DecodeBytes([]byte(`{"slug":`), "uk", &v)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeEmptyBodyIsEmptyObject(t *testing.T) {
	var v struct {
		Count int `json:"count"`
	}
	require.NoError(t, TopicSuggestions.DecodeBytes(nil, "uk", &v))
	assert.Zero(t, v.Count)
}

func TestErrorString(t *testing.T) {
	e := Field("name.uk", "Required.")
	e.Add("name.uk", "ignored")
	e.Add("slug", "Invalid.")
	assert.Equal(t, "validation failed: name.uk: Required.; slug: Invalid.", e.Error())
}
