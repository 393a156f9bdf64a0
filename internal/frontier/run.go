package frontier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
	"github.com/JakeFAU/wikifilm-crawler/internal/document"
	"github.com/JakeFAU/wikifilm-crawler/internal/metrics"
)

var (
	// ErrNoSeeds is returned when no seed survives validation.
	ErrNoSeeds = errors.New("no valid seed urls")
	// ErrInvalidRecord signals an extractor that broke the record totality guarantee.
	ErrInvalidRecord = errors.New("extractor produced an incomplete record")
)

// Stats summarizes a finished run.
type Stats struct {
	Requests      int `json:"requests"`
	CategoryPages int `json:"category_pages"`
	ArticlePages  int `json:"article_pages"`
	Records       int `json:"records"`
	Rejected      int `json:"rejected"`
	Duplicates    int `json:"duplicates"`
	FetchErrors   int `json:"fetch_errors"`
	ParseErrors   int `json:"parse_errors"`
	// Truncated is set when MaxRequests stopped the crawl with work still pending.
	Truncated bool `json:"truncated"`
}

// Progress returns the counters as of the last finished page. Safe to call while Run is active.
func (s *Scheduler) Progress() Stats {
	if p := s.progress.Load(); p != nil {
		return *p
	}
	return Stats{}
}

func (s *Scheduler) publishProgress(stats Stats) {
	s.progress.Store(&stats)
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeFetchError
	outcomeParseError
	outcomeDuplicate
)

// job is a dispatched request tagged with its dispatch sequence number.
type job struct {
	seq int
	req crawler.Request
}

type pageResult struct {
	seq        int
	req        crawler.Request
	outcome    outcome
	discovered []crawler.Request
	record     *crawler.Record
}

// Run crawls from seeds until the frontier drains, the request budget is spent, or
// ctx is canceled. One coordinator goroutine owns the pending queue; workers only
// fetch and parse. Results are absorbed in dispatch order, so records reach the
// sink in discovery order whatever order the fetches finish in.
func (s *Scheduler) Run(ctx context.Context, seeds []string) (Stats, error) {
	pending := s.Submit(seeds)
	if len(pending) == 0 {
		return Stats{}, ErrNoSeeds
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	results := make(chan pageResult)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(runCtx, jobs, results)
		}()
	}
	stop := func() {
		cancel()
		close(jobs)
		wg.Wait()
	}

	var (
		stats        Stats
		inFlight     int
		budgetLogged bool
		nextSeq      int
		held         = make(map[int]pageResult)
	)
	for len(pending) > 0 || inFlight > 0 {
		var (
			out  chan<- job
			next job
		)
		if len(pending) > 0 && s.hasBudget(stats.Requests) {
			out = jobs
			next = job{seq: stats.Requests, req: pending[0]}
		} else if len(pending) > 0 {
			if !budgetLogged {
				s.logger.Warn("Request budget exhausted; no further pages will be fetched",
					zap.Int("max_requests", s.cfg.MaxRequests),
					zap.Int("pending", len(pending)),
				)
				budgetLogged = true
			}
			if inFlight == 0 {
				stats.Truncated = true
				break
			}
		}

		select {
		case <-ctx.Done():
			stop()
			return stats, fmt.Errorf("crawl interrupted: %w", ctx.Err())
		case out <- next:
			pending = pending[1:]
			inFlight++
			stats.Requests++
		case res := <-results:
			inFlight--
			held[res.seq] = res
			for {
				ready, ok := held[nextSeq]
				if !ok {
					break
				}
				delete(held, nextSeq)
				nextSeq++
				pending = append(pending, ready.discovered...)
				if err := s.absorb(ctx, ready, &stats); err != nil {
					stop()
					return stats, err
				}
			}
			metrics.SetFrontier(len(pending), s.visited.Len())
			s.publishProgress(stats)
		}
	}

	stop()
	s.publishProgress(stats)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("crawl interrupted: %w", err)
	}
	return stats, nil
}

func (s *Scheduler) hasBudget(dispatched int) bool {
	return s.cfg.MaxRequests <= 0 || dispatched < s.cfg.MaxRequests
}

// absorb updates stats for one finished page and forwards its record to the sink.
func (s *Scheduler) absorb(ctx context.Context, res pageResult, stats *Stats) error {
	switch res.outcome {
	case outcomeFetchError:
		stats.FetchErrors++
		return nil
	case outcomeParseError:
		stats.ParseErrors++
		return nil
	case outcomeDuplicate:
		stats.Duplicates++
		return nil
	}
	if res.req.Kind == crawler.PageKindCategory {
		stats.CategoryPages++
		return nil
	}
	stats.ArticlePages++
	if res.record == nil {
		stats.Rejected++
		return nil
	}
	if !res.record.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, res.req.URL)
	}
	if err := s.sink.Write(ctx, *res.record); err != nil {
		return fmt.Errorf("write record for %s: %w", res.req.URL, err)
	}
	stats.Records++
	metrics.ObserveRecord()
	return nil
}

func (s *Scheduler) work(ctx context.Context, jobs <-chan job, results chan<- pageResult) {
	for j := range jobs {
		res := s.process(ctx, j.req)
		res.seq = j.seq
		select {
		case results <- res:
		case <-ctx.Done():
			return
		}
	}
}

// process fetches and routes one request. Failures drop the URL; they are never retried here.
func (s *Scheduler) process(ctx context.Context, req crawler.Request) pageResult {
	res := pageResult{req: req}
	rawURL := req.URL.String()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, rawURL); err != nil {
			res.outcome = outcomeFetchError
			return res
		}
	}

	resp, err := s.fetcher.Fetch(ctx, crawler.FetchRequest{URL: rawURL, Kind: req.Kind})
	if err != nil {
		s.logger.Warn("Fetch failed; dropping url",
			zap.String("url", rawURL),
			zap.String("kind", string(req.Kind)),
			zap.Error(err),
		)
		metrics.ObservePage(rawURL, string(req.Kind), metrics.StatusFetchError, 0)
		res.outcome = outcomeFetchError
		return res
	}

	pageURL := rawURL
	if resp.URL != "" && resp.URL != rawURL {
		pageURL = resp.URL
		final, ok := crawler.ResolveString(resp.URL, resp.URL)
		if ok && final != req.URL && !s.visited.MarkIfNew(final) {
			s.logger.Debug("Redirect target already visited; dropping url",
				zap.String("url", rawURL),
				zap.String("target", pageURL),
			)
			res.outcome = outcomeDuplicate
			return res
		}
	}

	doc, err := document.New(resp.Body)
	if err != nil {
		s.logger.Warn("Parse failed; dropping url", zap.String("url", pageURL), zap.Error(err))
		metrics.ObservePage(pageURL, string(req.Kind), metrics.StatusParseError, len(resp.Body))
		res.outcome = outcomeParseError
		return res
	}
	metrics.ObservePage(pageURL, string(req.Kind), metrics.StatusOK, len(resp.Body))

	switch req.Kind {
	case crawler.PageKindCategory:
		s.logger.Info("Category page", zap.String("url", pageURL))
		res.discovered = s.OnCategoryPage(doc, pageURL)
	case crawler.PageKindArticle:
		s.logger.Debug("Article", zap.String("url", pageURL))
		if rec, ok := s.OnArticlePage(doc, pageURL); ok {
			res.record = &rec
		}
	}
	return res
}
