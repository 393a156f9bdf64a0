// Package pubsub publishes film records to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
)

// RunIDAttribute carries the crawl run on every message.
const RunIDAttribute = "run_id"

// Config selects the topic to publish to.
type Config struct {
	ProjectID string
	TopicName string
	RunID     string
}

// PublishFunc sends one message and returns its server ID.
type PublishFunc func(ctx context.Context, data []byte, attrs map[string]string) (string, error)

// Sink publishes each record as a JSON message.
type Sink struct {
	publish PublishFunc
	close   func() error
	runID   string
}

var _ crawler.RecordSink = (*Sink)(nil)

// New creates a client for cfg.ProjectID and publishes to cfg.TopicName.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("pubsub.project_id is required")
	}
	if cfg.TopicName == "" {
		return nil, errors.New("pubsub.topic_name is required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(cfg.TopicName)
	s := NewWithTopic(topic, cfg.RunID)
	s.close = func() error {
		topic.Stop()
		if err := client.Close(); err != nil {
			return fmt.Errorf("close pubsub client: %w", err)
		}
		return nil
	}
	return s, nil
}

// NewWithTopic publishes to an existing topic handle. Close flushes the topic.
func NewWithTopic(topic *pubsub.Topic, runID string) *Sink {
	return &Sink{
		publish: func(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
			return topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
		},
		close: func() error {
			topic.Stop()
			return nil
		},
		runID: runID,
	}
}

// NewWithPublisher wraps an arbitrary publish function.
func NewWithPublisher(publish PublishFunc, runID string) (*Sink, error) {
	if publish == nil {
		return nil, errors.New("publish func is required")
	}
	return &Sink{publish: publish, runID: runID}, nil
}

// Write marshals rec to JSON and waits for the publish to be acknowledged.
func (s *Sink) Write(ctx context.Context, rec crawler.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	attrs := map[string]string{}
	if s.runID != "" {
		attrs[RunIDAttribute] = s.runID
	}
	if _, err := s.publish(ctx, data, attrs); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close flushes outstanding messages and releases the client.
func (s *Sink) Close(_ context.Context) error {
	if s.close == nil {
		return nil
	}
	closeFn := s.close
	s.close = nil
	return closeFn()
}
