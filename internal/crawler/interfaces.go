package crawler

import (
	"context"
)

// Fetcher fetches a URL and returns the body plus metadata.
// Politeness (robots.txt, retries) belongs to the implementation.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// RecordSink receives accepted records in discovery order.
type RecordSink interface {
	Write(ctx context.Context, rec Record) error
	Close(ctx context.Context) error
}

// Limiter blocks until a request to the URL's host may proceed.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
