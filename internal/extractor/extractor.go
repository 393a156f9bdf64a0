// Package extractor pulls film record fields out of a classified article page.
// Extraction never fails: every field ends up with extracted text or crawler.Unspecified.
package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/JakeFAU/wikifilm-crawler/internal/classifier"
	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
	"github.com/JakeFAU/wikifilm-crawler/internal/document"
	"github.com/JakeFAU/wikifilm-crawler/internal/locale"
)

// HeadingSelector locates the page's primary heading.
const HeadingSelector = "#firstHeading"

const valueSeparator = ", "

var yearPattern = regexp.MustCompile(`[0-9]{4}`)

// Row is one infobox (label, value) pair.
type Row struct {
	Label string
	Value string
}

// Extractor resolves the five record fields from a page.
type Extractor struct {
	loc locale.Locale
}

// New builds an Extractor routing labels with loc's table.
func New(loc locale.Locale) *Extractor {
	return &Extractor{loc: loc}
}

// Extract returns a fully populated record for doc fetched from pageURL.
func (e *Extractor) Extract(doc *document.Document, pageURL string) crawler.Record {
	rec := crawler.NewRecord(e.Title(doc, pageURL))
	if doc == nil {
		return rec
	}
	for _, row := range InfoboxRows(doc) {
		e.apply(&rec, row)
	}
	if rec.Year == crawler.Unspecified {
		lead := strings.TrimSpace(strings.Join(trimAll(classifier.LeadFragments(doc)), " "))
		if year := yearPattern.FindString(lead); year != "" {
			rec.Year = year
		}
	}
	return rec
}

// Title resolves the heading text, then the URL slug, then Unspecified.
func (e *Extractor) Title(doc *document.Document, pageURL string) string {
	if doc != nil {
		if title := document.JoinTrimmed(doc.Texts(HeadingSelector), " "); title != "" {
			return title
		}
	}
	if title := TitleFromURL(pageURL, e.loc.ArticlePrefix); title != "" {
		return title
	}
	return crawler.Unspecified
}

func (e *Extractor) apply(rec *crawler.Record, row Row) {
	field, ok := e.loc.RouteLabel(row.Label)
	if !ok || row.Value == "" {
		return
	}
	value := row.Value
	if field == crawler.FieldYear {
		value = NormalizeYear(value)
	}
	rec.Set(field, value)
}

// InfoboxRows parses every labelled row of the page's infobox tables.
func InfoboxRows(doc *document.Document) []Row {
	var rows []Row
	doc.Find(classifier.InfoboxSelector).Find("tr").Each(func(_ int, tr *goquery.Selection) {
		label := strings.TrimSpace(strings.Join(document.TextFragments(tr.ChildrenFiltered("th")), ""))
		if label == "" {
			return
		}
		value := document.JoinTrimmed(document.TextFragments(tr.ChildrenFiltered("td")), valueSeparator)
		rows = append(rows, Row{Label: label, Value: value})
	})
	return rows
}

// NormalizeYear keeps the first four-digit run of raw, or the trimmed raw value when there is none.
func NormalizeYear(raw string) string {
	if year := yearPattern.FindString(raw); year != "" {
		return year
	}
	return strings.TrimSpace(raw)
}

// TitleFromURL derives a title from the final article slug: underscores become spaces
// and percent escapes are decoded. An undecodable slug is returned as-is.
func TitleFromURL(pageURL, articlePrefix string) string {
	raw := pageURL
	if articlePrefix != "" && strings.Contains(raw, articlePrefix) {
		raw = raw[strings.LastIndex(raw, articlePrefix)+len(articlePrefix):]
	} else if idx := strings.LastIndex(strings.TrimRight(raw, "/"), "/"); idx >= 0 {
		raw = strings.TrimRight(raw, "/")[idx+1:]
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.ReplaceAll(raw, "_", " ")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return norm.NFC.String(strings.TrimSpace(raw))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
