package content

import (
	"strings"
	"unicode"
)

// Language codes for bilingual fields.
const (
	LangUK = "uk"
	LangEN = "en"
)

// Text is a bilingual string stored as two columns (<name>_uk, <name>_en).
type Text struct {
	UK string `json:"uk" yaml:"uk"`
	EN string `json:"en" yaml:"en"`
}

// In returns the text for lang, falling back to the other language when
// the requested one is empty.
func (t Text) In(lang string) string {
	if lang == LangEN {
		if t.EN != "" {
			return t.EN
		}
		return t.UK
	}
	if t.UK != "" {
		return t.UK
	}
	return t.EN
}

// IsZero reports whether both languages are empty.
func (t Text) IsZero() bool {
	return t.UK == "" && t.EN == ""
}

// Trimmed returns t with surrounding whitespace removed from both languages.
func (t Text) Trimmed() Text {
	return Text{UK: strings.TrimSpace(t.UK), EN: strings.TrimSpace(t.EN)}
}

// FillMissing copies translations from other into the empty languages of t.
// It reports whether anything changed.
func (t *Text) FillMissing(other Text) bool {
	changed := false
	if t.UK == "" && other.UK != "" {
		t.UK = other.UK
		changed = true
	}
	if t.EN == "" && other.EN != "" {
		t.EN = other.EN
		changed = true
	}
	return changed
}

// Normalize produces the comparison key used for deduplication: case-folded,
// with runs of whitespace collapsed to one space and trailing sentence
// punctuation removed. Inner punctuation and symbols are kept, so
// "2 + 2 = ?" and "2 - 2 = ?" stay distinct.
func Normalize(s string) string {
	key := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimRightFunc(key, func(r rune) bool {
		return r == '?' || r == '!' || r == '.' || unicode.IsSpace(r)
	})
}
