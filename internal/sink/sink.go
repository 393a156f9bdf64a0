// Package sink holds RecordSink combinators; concrete sinks live in subpackages.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
)

// Multi writes every record to each of its sinks in order.
type Multi []crawler.RecordSink

var _ crawler.RecordSink = Multi(nil)

// Write stops at the first failing sink.
func (m Multi) Write(ctx context.Context, rec crawler.Record) error {
	for i, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m Multi) Close(ctx context.Context) error {
	var errs []error
	for i, s := range m {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Func adapts a callback into a sink with a no-op Close.
type Func func(ctx context.Context, rec crawler.Record) error

// Write calls f.
func (f Func) Write(ctx context.Context, rec crawler.Record) error {
	return f(ctx, rec)
}

// Close does nothing.
func (Func) Close(context.Context) error {
	return nil
}
