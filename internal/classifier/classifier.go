// Package classifier decides whether an article page describes a film using
// layered page signals.
package classifier

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/wikifilm-crawler/internal/document"
	"github.com/JakeFAU/wikifilm-crawler/internal/locale"
)

// Selectors used by the built-in rules.
const (
	InfoboxSelector      = `table[class*="infobox"]`
	LeadSelector         = `div.mw-parser-output > p:not([class])`
	CategoryLinkSelector = `div#mw-normal-catlinks a`
)

// leadFragmentLimit caps how much of the lead text is inspected.
const leadFragmentLimit = 200

// EvidenceNone is reported when no rule matched.
const EvidenceNone = "none"

// EvidenceNoInfobox is reported when the hard gate rejected the page.
const EvidenceNoInfobox = "no_infobox"

// Verdict is the classification result for one article.
type Verdict struct {
	Target   bool
	Evidence string
}

// Rule is one named signal. Match must not mutate the document.
type Rule struct {
	Name  string
	Match func(doc *document.Document, loc locale.Locale) bool
}

// Classifier evaluates its rules in order and stops at the first positive.
type Classifier struct {
	loc   locale.Locale
	rules []Rule
}

// New builds a Classifier with the default rule order for loc.
func New(loc locale.Locale) *Classifier {
	return &Classifier{loc: loc, rules: Rules()}
}

// NewWithRules builds a Classifier with a caller-supplied rule order.
func NewWithRules(loc locale.Locale, rules []Rule) *Classifier {
	return &Classifier{loc: loc, rules: append([]Rule(nil), rules...)}
}

// Rules returns the default ordered rule list. Append to extend it.
func Rules() []Rule {
	return []Rule{
		{Name: "caption", Match: captionMentionsTarget},
		{Name: "lead", Match: leadMentionsTarget},
		{Name: "first_label", Match: firstLabelMentionsTarget},
		{Name: "category", Match: categoryMentionsTarget},
	}
}

// IsTargetType reports whether doc is a film page.
func (c *Classifier) IsTargetType(doc *document.Document) bool {
	return c.Classify(doc).Target
}

// Classify runs the infobox gate and then each rule until one matches.
func (c *Classifier) Classify(doc *document.Document) Verdict {
	if doc == nil || !doc.Exists(InfoboxSelector) {
		return Verdict{Evidence: EvidenceNoInfobox}
	}
	for _, rule := range c.rules {
		if rule.Match != nil && rule.Match(doc, c.loc) {
			return Verdict{Target: true, Evidence: rule.Name}
		}
	}
	return Verdict{Evidence: EvidenceNone}
}

func captionMentionsTarget(doc *document.Document, loc locale.Locale) bool {
	caption := doc.Find(InfoboxSelector).Find("caption").First()
	return loc.ContainsKeyword(strings.Join(document.TextFragments(caption), " "))
}

func leadMentionsTarget(doc *document.Document, loc locale.Locale) bool {
	fragments := LeadFragments(doc)
	if len(fragments) > leadFragmentLimit {
		fragments = fragments[:leadFragmentLimit]
	}
	return loc.ContainsKeyword(strings.Join(fragments, " "))
}

func firstLabelMentionsTarget(doc *document.Document, loc locale.Locale) bool {
	th := doc.Find(InfoboxSelector).Find("tr > th").First()
	return loc.ContainsKeyword(strings.Join(document.TextFragments(th), ""))
}

func categoryMentionsTarget(doc *document.Document, loc locale.Locale) bool {
	found := false
	doc.Find(CategoryLinkSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		found = loc.ContainsKeyword(strings.Join(document.TextFragments(a), " "))
		return !found
	})
	return found
}

// LeadFragments returns the text fragments of the lead paragraphs that carry text.
func LeadFragments(doc *document.Document) []string {
	var out []string
	doc.Find(LeadSelector).Each(func(_ int, p *goquery.Selection) {
		out = append(out, document.TextFragments(p)...)
	})
	return out
}
