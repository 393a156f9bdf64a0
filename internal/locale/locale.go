// Package locale holds the per-language token tables that drive classification,
// pagination, and infobox label routing.
package locale

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
)

// ErrUnknownLocale is returned by Lookup for names with no table.
var ErrUnknownLocale = errors.New("unknown locale")

// LabelRule routes an infobox row to a field when its lowercased label contains Keyword.
type LabelRule struct {
	Keyword string
	Field   crawler.Field
}

// Locale bundles the tokens for one wiki language edition.
type Locale struct {
	Name string
	// TargetKeywords are matched case-insensitively as substrings.
	TargetKeywords []string
	// NextPageToken is matched against the visible text of pagination links.
	NextPageToken string
	// ArticlePrefix precedes the page title in article URLs.
	ArticlePrefix string
	// NamespaceSeparator marks non-content pages such as talk or file pages.
	NamespaceSeparator string
	// Labels is evaluated in order; the first match wins.
	Labels []LabelRule
}

var builtins = map[string]Locale{
	"ru": {
		Name:               "ru",
		TargetKeywords:     []string{"фильм", "фильмы"},
		NextPageToken:      "Следующая",
		ArticlePrefix:      "/wiki/",
		NamespaceSeparator: ":",
		Labels: []LabelRule{
			{Keyword: "жанр", Field: crawler.FieldGenre},
			{Keyword: "режис", Field: crawler.FieldDirector},
			{Keyword: "стра", Field: crawler.FieldCountry},
			{Keyword: "год", Field: crawler.FieldYear},
		},
	},
	"en": {
		Name:               "en",
		TargetKeywords:     []string{"film", "films"},
		NextPageToken:      "next page",
		ArticlePrefix:      "/wiki/",
		NamespaceSeparator: ":",
		Labels: []LabelRule{
			{Keyword: "genre", Field: crawler.FieldGenre},
			{Keyword: "directed", Field: crawler.FieldDirector},
			{Keyword: "country", Field: crawler.FieldCountry},
			{Keyword: "release", Field: crawler.FieldYear},
			{Keyword: "year", Field: crawler.FieldYear},
		},
	},
}

// Default returns the Russian table the crawler was built around.
func Default() Locale {
	l, _ := Lookup("ru")
	return l
}

// Lookup returns a copy of the named built-in locale.
func Lookup(name string) (Locale, error) {
	l, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Locale{}, fmt.Errorf("%w: %q", ErrUnknownLocale, name)
	}
	l.TargetKeywords = append([]string(nil), l.TargetKeywords...)
	l.Labels = append([]LabelRule(nil), l.Labels...)
	return l, nil
}

// Names lists the built-in locale names.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ContainsKeyword reports whether text contains any target keyword, ignoring case.
func (l Locale) ContainsKeyword(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range l.TargetKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// RouteLabel returns the field for a raw infobox label.
func (l Locale) RouteLabel(label string) (crawler.Field, bool) {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return "", false
	}
	for _, rule := range l.Labels {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Field, true
		}
	}
	return "", false
}
