// Package i18n negotiates the response language and holds the message
// catalog for user-facing errors.
package i18n

import (
	"fmt"
	"net/http"

	"golang.org/x/text/language"

	"github.com/abhisek/pidruchnyk/internal/content"
)

// Default is the language used when negotiation finds no match.
const Default = content.LangUK

var (
	supported = []language.Tag{language.Ukrainian, language.English}
	matcher   = language.NewMatcher(supported)
)

// Negotiate picks the response language from ?lang=, then Accept-Language.
func Negotiate(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		return Match(l)
	}
	return Match(r.Header.Get("Accept-Language"))
}

// Match maps an Accept-Language style string to "uk" or "en".
func Match(accept string) string {
	if accept == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if supported[idx] == language.English {
		return content.LangEN
	}
	return content.LangUK
}

// Tag returns the language.Tag for "uk" or "en".
func Tag(lang string) language.Tag {
	if lang == content.LangEN {
		return language.English
	}
	return language.Ukrainian
}

// T formats the catalog message key in lang. Unknown keys are returned
// as-is so a missing translation is visible rather than blank.
func T(lang, key string, args ...any) string {
	msgs, ok := catalog[lang]
	if !ok {
		msgs = catalog[Default]
	}
	format, ok := msgs[key]
	if !ok {
		if format, ok = catalog[Default][key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
