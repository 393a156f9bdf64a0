// Package metrics exposes Prometheus collectors for the film crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmcrawler_pages_total",
			Help: "Total number of pages processed, labeled by site, page kind and status.",
		},
		[]string{"site", "kind", "status"},
	)

	crawlerBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmcrawler_bytes_total",
			Help: "Total number of bytes fetched, labeled by site.",
		},
		[]string{"site"},
	)

	classificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmcrawler_classifications_total",
			Help: "Article classification verdicts, labeled by verdict and the evidence that decided it.",
		},
		[]string{"verdict", "evidence"},
	)

	recordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmcrawler_records_total",
			Help: "Total number of film records delivered to the sink.",
		},
	)

	frontierPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filmcrawler_frontier_pending",
			Help: "Number of discovered requests waiting to be fetched.",
		},
	)

	frontierVisited = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filmcrawler_frontier_visited",
			Help: "Number of distinct URLs scheduled during this run.",
		},
	)

	rateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmcrawler_rate_limit_delays_seconds",
			Help:    "Histogram of rate limit wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"domain"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmcrawler_http_requests_total",
			Help: "Total number of HTTP requests served, labeled by method and code.",
		},
		[]string{"method", "code"},
	)
)

// Page status labels.
const (
	StatusOK         = "ok"
	StatusFetchError = "fetch_error"
	StatusParseError = "parse_error"
)

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage counts a processed page and the bytes fetched for it.
func ObservePage(site, kind, status string, bytesFetched int) {
	sanitized := SanitizeSite(site)
	crawlerPagesTotal.WithLabelValues(sanitized, kind, status).Inc()
	if bytesFetched > 0 {
		crawlerBytesTotal.WithLabelValues(sanitized).Add(float64(bytesFetched))
	}
}

// ObserveClassification counts an article verdict.
func ObserveClassification(target bool, evidence string) {
	classificationsTotal.WithLabelValues(strconv.FormatBool(target), evidence).Inc()
}

// ObserveRecord counts a record delivered to the sink.
func ObserveRecord() {
	recordsTotal.Inc()
}

// SetFrontier publishes the pending queue length and visited set size.
func SetFrontier(pending, visited int) {
	frontierPending.Set(float64(pending))
	frontierVisited.Set(float64(visited))
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveHTTPRequest counts a request served by the status server.
func ObserveHTTPRequest(method string, code int) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

var robotsFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "filmcrawler_robots_fallbacks_total",
		Help: "Number of robots.txt fetches that fell back to allow-all, labeled by reason.",
	},
	[]string{"reason"},
)

// ObserveRobotsFallback counts a robots.txt fetch treated as allow-all.
func ObserveRobotsFallback(reason string) {
	robotsFallbacksTotal.WithLabelValues(reason).Inc()
}
