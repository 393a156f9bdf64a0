// Package crawler defines core types shared across subsystems.
package crawler

import (
	"net/http"
	"strings"
	"time"
)

// Unspecified is stored in a record field that could not be determined.
const Unspecified = "unspecified"

// PageKind tells the scheduler which callback handles a fetched page.
type PageKind string

// Page kinds assigned at enqueue time.
const (
	PageKindCategory PageKind = "category"
	PageKindArticle  PageKind = "article"
)

// Field names a routable record field. Title is resolved separately.
type Field string

// Record fields filled from infobox rows.
const (
	FieldGenre    Field = "genre"
	FieldDirector Field = "director"
	FieldCountry  Field = "country"
	FieldYear     Field = "year"
)

// URLTarget is an absolute, normalized URL. Equal strings are the same target.
type URLTarget string

// String returns the target as a plain string.
func (u URLTarget) String() string {
	return string(u)
}

// Request is a single unit of frontier work.
type Request struct {
	URL  URLTarget
	Kind PageKind
}

// Record is one extracted film row. Every field is either extracted text or Unspecified.
type Record struct {
	Title    string `json:"title"`
	Genre    string `json:"genre"`
	Director string `json:"director"`
	Country  string `json:"country"`
	Year     string `json:"year"`
}

// NewRecord returns a record with title set and every other field at Unspecified.
func NewRecord(title string) Record {
	if strings.TrimSpace(title) == "" {
		title = Unspecified
	}
	return Record{
		Title:    title,
		Genre:    Unspecified,
		Director: Unspecified,
		Country:  Unspecified,
		Year:     Unspecified,
	}
}

// Header returns the fixed column order used by delimited sinks.
func Header() []string {
	return []string{"title", "genre", "director", "country", "year"}
}

// Values returns the record fields in Header order.
func (r Record) Values() []string {
	return []string{r.Title, r.Genre, r.Director, r.Country, r.Year}
}

// Get returns the value of a routable field.
func (r Record) Get(f Field) string {
	switch f {
	case FieldGenre:
		return r.Genre
	case FieldDirector:
		return r.Director
	case FieldCountry:
		return r.Country
	case FieldYear:
		return r.Year
	default:
		return ""
	}
}

// Set stores value in a routable field. Blank values are ignored so a field is never downgraded.
func (r *Record) Set(f Field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	switch f {
	case FieldGenre:
		r.Genre = value
	case FieldDirector:
		r.Director = value
	case FieldCountry:
		r.Country = value
	case FieldYear:
		r.Year = value
	}
}

// Valid reports whether every field holds a non-blank value.
func (r Record) Valid() bool {
	for _, v := range r.Values() {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Kind    PageKind
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
