// Package csv writes film records as UTF-8 comma-separated rows.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
)

// Sink appends one row per record after a fixed header. Each row is flushed
// immediately so records already written survive an interrupted run.
type Sink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	path   string
}

var _ crawler.RecordSink = (*Sink)(nil)

// New creates (or truncates) the file at path and writes the header.
func New(path string) (*Sink, error) {
	if path == "" {
		return nil, errors.New("csv output path is required")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv output: %w", err)
	}
	s, err := newSink(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.path = path
	return s, nil
}

// NewWriter writes to w. Close does not close w.
func NewWriter(w io.Writer) (*Sink, error) {
	return newSink(w, nil)
}

func newSink(w io.Writer, closer io.Closer) (*Sink, error) {
	s := &Sink{w: csv.NewWriter(w), closer: closer}
	if err := s.writeRow(crawler.Header()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return s, nil
}

// Path returns the file path, or "" when the sink wraps a writer.
func (s *Sink) Path() string {
	return s.path
}

// Write appends rec as a row.
func (s *Sink) Write(_ context.Context, rec crawler.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeRow(rec.Values()); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}

func (s *Sink) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes pending output and closes the underlying file.
func (s *Sink) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	flushErr := s.w.Error()
	if s.closer == nil {
		return flushErr
	}
	closeErr := s.closer.Close()
	s.closer = nil
	return errors.Join(flushErr, closeErr)
}
