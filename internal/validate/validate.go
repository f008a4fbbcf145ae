// Package validate checks JSON request bodies against JSON Schemas and
// reports failures as localized per-field messages.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/message"

	"github.com/abhisek/pidruchnyk/internal/i18n"
)

// ErrMalformed is returned for bodies that are not JSON at all.
var ErrMalformed = errors.New("malformed JSON body")

// Error carries field messages keyed by dotted path, e.g. "name.uk" or
// "answers.0.text.uk". An empty key refers to the whole document.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field builds an Error for a single field.
func Field(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

// Add records msg for field unless the field already has a message.
func (e *Error) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Schema is a compiled request schema.
type Schema struct {
	name string
	sch  *jsonschema.Schema
}

// MustCompile compiles a JSON Schema document. It panics on error and is
// meant for package-level schema variables.
func MustCompile(name, doc string) *Schema {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
	if err != nil {
		panic(fmt.Sprintf("validate: parse schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	url := "mem://request/" + name + ".json"
	if err := c.AddResource(url, parsed); err != nil {
		panic(fmt.Sprintf("validate: add schema %s: %v", name, err))
	}
	sch, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("validate: compile schema %s: %v", name, err))
	}
	return &Schema{name: name, sch: sch}
}

// Decode reads r, validates it and unmarshals it into v. Validation
// messages are rendered in lang.
func (s *Schema) Decode(r io.Reader, lang string, v any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return s.DecodeBytes(body, lang, v)
}

// DecodeBytes is Decode for an in-memory body.
func (s *Schema) DecodeBytes(body []byte, lang string, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return ErrMalformed
	}
	if err := s.sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fromValidationError(ve, lang)
		}
		return fmt.Errorf("validate %s: %w", s.name, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return ErrMalformed
	}
	return nil
}

func fromValidationError(ve *jsonschema.ValidationError, lang string) *Error {
	out := &Error{Fields: map[string]string{}}
	printer := message.NewPrinter(i18n.Tag(lang))
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		for field, msg := range describe(e, lang, printer) {
			out.Add(field, msg)
		}
	}
	walk(ve)
	if len(out.Fields) == 0 {
		out.Add("", i18n.T(lang, i18n.FieldInvalid))
	}
	return out
}

// nonBlank is the pattern required texts carry to reject whitespace.
const nonBlank = `\S`

// describe turns one leaf error into field messages.
func describe(e *jsonschema.ValidationError, lang string, p *message.Printer) map[string]string {
	loc := strings.Join(e.InstanceLocation, ".")
	switch k := e.ErrorKind.(type) {
	case *kind.Required:
		out := make(map[string]string, len(k.Missing))
		for _, m := range k.Missing {
			out[join(loc, m)] = i18n.T(lang, i18n.FieldRequired)
		}
		return out
	case *kind.AdditionalProperties:
		out := make(map[string]string, len(k.Properties))
		for _, prop := range k.Properties {
			out[join(loc, prop)] = i18n.T(lang, i18n.FieldUnknown)
		}
		return out
	case *kind.MinLength:
		if k.Want == 1 {
			return map[string]string{loc: i18n.T(lang, i18n.FieldRequired)}
		}
		return map[string]string{loc: i18n.T(lang, i18n.FieldMinLength, k.Want)}
	case *kind.MaxLength:
		return map[string]string{loc: i18n.T(lang, i18n.FieldMaxLength, k.Want)}
	case *kind.MinItems:
		return map[string]string{loc: i18n.T(lang, i18n.FieldMinItems, k.Want)}
	case *kind.Type:
		return map[string]string{loc: i18n.T(lang, i18n.FieldType)}
	case *kind.Enum, *kind.Const:
		return map[string]string{loc: i18n.T(lang, i18n.FieldEnum)}
	case *kind.Format:
		return map[string]string{loc: i18n.T(lang, i18n.FieldFormat)}
	case *kind.Pattern:
		if k.Want == nonBlank {
			return map[string]string{loc: i18n.T(lang, i18n.FieldRequired)}
		}
		return map[string]string{loc: i18n.T(lang, i18n.FieldPattern)}
	case *kind.Minimum, *kind.Maximum:
		return map[string]string{loc: i18n.T(lang, i18n.FieldRange)}
	default:
		return map[string]string{loc: e.ErrorKind.LocalizedString(p)}
	}
}

func join(loc, prop string) string {
	if loc == "" {
		return prop
	}
	return loc + "." + prop
}
