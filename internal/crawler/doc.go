// Package crawler holds the types and interfaces shared by the film crawler:
// page kinds, crawl requests, film records, URL normalization, and the seams
// between the frontier, fetchers, sinks, and id generators.
package crawler
