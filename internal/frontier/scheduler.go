// Package frontier implements the category-graph traversal: it owns the visited set,
// routes fetched pages by kind, and feeds a pool of fetch workers.
package frontier

import (
	"net/url"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/wikifilm-crawler/internal/classifier"
	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
	"github.com/JakeFAU/wikifilm-crawler/internal/document"
	"github.com/JakeFAU/wikifilm-crawler/internal/locale"
	"github.com/JakeFAU/wikifilm-crawler/internal/metrics"
)

// Category page zones.
const (
	SubcategorySelector = `div#mw-subcategories a`
	ArticleLinkSelector = `div#mw-pages div.mw-category-group a`
	NextRelSelector     = `link[rel="next"]`
)

// Config controls traversal behavior.
type Config struct {
	// Workers is the number of concurrent fetches.
	Workers int
	// MaxRequests stops dispatching after this many fetches. Zero means unbounded.
	MaxRequests int
	// AllowedDomains restricts discovered targets to these hosts ("*.suffix" allowed).
	AllowedDomains []string
}

// Classifier decides whether an article is a film page.
type Classifier interface {
	Classify(doc *document.Document) classifier.Verdict
}

// Extractor builds a record from a film page.
type Extractor interface {
	Extract(doc *document.Document, pageURL string) crawler.Record
}

// Scheduler is the frontier: it turns category pages into new requests and article
// pages into records.
type Scheduler struct {
	cfg        Config
	loc        locale.Locale
	fetcher    crawler.Fetcher
	limiter    crawler.Limiter
	classifier Classifier
	extractor  Extractor
	sink       crawler.RecordSink
	visited    *VisitedSet
	allowed    *hostAllowlist
	logger     *zap.Logger
	progress   atomic.Pointer[Stats]
}

// New constructs a Scheduler. limiter may be nil.
func New(
	cfg Config,
	loc locale.Locale,
	fetcher crawler.Fetcher,
	limiter crawler.Limiter,
	cls Classifier,
	ext Extractor,
	sink crawler.RecordSink,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Scheduler{
		cfg:        cfg,
		loc:        loc,
		fetcher:    fetcher,
		limiter:    limiter,
		classifier: cls,
		extractor:  ext,
		sink:       sink,
		visited:    NewVisitedSet(),
		allowed:    newHostAllowlist(cfg.AllowedDomains),
		logger:     logger,
	}
}

// Visited exposes the run's visited set.
func (s *Scheduler) Visited() *VisitedSet {
	return s.visited
}

// Submit turns seed URLs into category requests. Invalid and repeated seeds are dropped.
func (s *Scheduler) Submit(seeds []string) []crawler.Request {
	var out []crawler.Request
	for _, seed := range seeds {
		seed = strings.TrimSpace(seed)
		u, err := url.Parse(seed)
		if err != nil || !u.IsAbs() {
			s.logger.Warn("Ignoring invalid seed", zap.String("seed", seed))
			continue
		}
		if req, ok := s.schedule(seed, u, crawler.PageKindCategory); ok {
			out = append(out, req)
		}
	}
	return out
}

// OnCategoryPage returns the subcategory, article, and next-page requests found on a
// category page. Each link is handled on its own; a bad href never stops the rest.
func (s *Scheduler) OnCategoryPage(doc *document.Document, pageURL string) []crawler.Request {
	base, err := url.Parse(pageURL)
	if err != nil {
		s.logger.Warn("Category page URL unparsable", zap.String("url", pageURL), zap.Error(err))
		return nil
	}

	var out []crawler.Request
	for _, href := range doc.Attrs(SubcategorySelector, "href") {
		if req, ok := s.schedule(href, base, crawler.PageKindCategory); ok {
			out = append(out, req)
		}
	}
	for _, href := range doc.Attrs(ArticleLinkSelector, "href") {
		if s.isNamespaced(href) {
			continue
		}
		if req, ok := s.schedule(href, base, crawler.PageKindArticle); ok {
			out = append(out, req)
		}
	}
	if next := s.nextPageHref(doc); next != "" {
		if req, ok := s.schedule(next, base, crawler.PageKindCategory); ok {
			out = append(out, req)
		}
	}
	return out
}

// OnArticlePage classifies the page and, for film pages, extracts a record.
func (s *Scheduler) OnArticlePage(doc *document.Document, pageURL string) (crawler.Record, bool) {
	verdict := s.classifier.Classify(doc)
	metrics.ObserveClassification(verdict.Target, verdict.Evidence)
	if !verdict.Target {
		s.logger.Debug("Skipped (not a film)",
			zap.String("url", pageURL),
			zap.String("evidence", verdict.Evidence),
		)
		return crawler.Record{}, false
	}
	return s.extractor.Extract(doc, pageURL), true
}

// nextPageHref prefers a link whose visible text carries the locale's next-page token
// and falls back to the head's rel=next annotation.
func (s *Scheduler) nextPageHref(doc *document.Document) string {
	if token := strings.ToLower(s.loc.NextPageToken); token != "" {
		for _, link := range doc.Links("a") {
			if strings.TrimSpace(link.Href) != "" && strings.Contains(strings.ToLower(link.Text), token) {
				return link.Href
			}
		}
	}
	for _, href := range doc.Attrs(NextRelSelector, "href") {
		if strings.TrimSpace(href) != "" {
			return href
		}
	}
	return ""
}

// isNamespaced reports whether an article href points at a non-content page
// (talk, file, template) by looking for the namespace separator in its title part.
func (s *Scheduler) isNamespaced(href string) bool {
	sep := s.loc.NamespaceSeparator
	if sep == "" {
		return false
	}
	slug := href
	if prefix := s.loc.ArticlePrefix; prefix != "" {
		if idx := strings.LastIndex(slug, prefix); idx >= 0 {
			slug = slug[idx+len(prefix):]
		}
	}
	if strings.Contains(slug, sep) {
		return true
	}
	decoded, err := url.PathUnescape(slug)
	return err == nil && strings.Contains(decoded, sep)
}

// schedule resolves href and claims it in the visited set. It returns false for
// unresolvable, disallowed, and already-seen targets.
func (s *Scheduler) schedule(href string, base *url.URL, kind crawler.PageKind) (crawler.Request, bool) {
	target, ok := crawler.Resolve(href, base)
	if !ok {
		s.logger.Debug("Skipping unresolvable link", zap.String("href", href), zap.String("base", base.String()))
		return crawler.Request{}, false
	}
	if !s.allowed.Allows(hostOf(target)) {
		s.logger.Debug("Skipping off-domain link", zap.String("url", target.String()))
		return crawler.Request{}, false
	}
	if !s.visited.MarkIfNew(target) {
		return crawler.Request{}, false
	}
	return crawler.Request{URL: target, Kind: kind}, true
}

func hostOf(target crawler.URLTarget) string {
	u, err := url.Parse(string(target))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
