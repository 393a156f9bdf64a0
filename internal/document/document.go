// Package document wraps goquery with the structural queries the crawler needs:
// text fragments, attributes, and links over a parsed page.
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Link is an anchor's href paired with its visible text.
type Link struct {
	Href string
	Text string
}

// New parses an HTML body.
func New(body []byte) (*Document, error) {
	return NewFromReader(bytes.NewReader(body))
}

// NewFromReader parses HTML from r.
func NewFromReader(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Find returns the goquery selection for selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Exists reports whether selector matches at least one element.
func (d *Document) Exists(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

// Texts returns the non-blank text fragments under every match, in document order.
func (d *Document) Texts(selector string) []string {
	return TextFragments(d.doc.Find(selector))
}

// Attrs returns the attribute value of every match that carries it.
func (d *Document) Attrs(selector, attr string) []string {
	var out []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			out = append(out, v)
		}
	})
	return out
}

// Links returns every anchor under selector that has an href.
func (d *Document) Links(selector string) []Link {
	var out []Link
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		out = append(out, Link{
			Href: href,
			Text: strings.Join(strings.Fields(strings.Join(TextFragments(s), " ")), " "),
		})
	})
	return out
}

// TextFragments walks the selection and returns each non-blank text node, untrimmed
// apart from NFC normalization. Script and style contents are skipped.
func TextFragments(sel *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				out = append(out, norm.NFC.String(n.Data))
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// JoinTrimmed trims every fragment, drops blanks, and joins the rest with sep.
func JoinTrimmed(fragments []string, sep string) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, sep)
}
