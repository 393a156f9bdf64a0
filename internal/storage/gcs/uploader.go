// Package gcs uploads crawl output to Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// CSVContentType is used for uploaded film tables.
const CSVContentType = "text/csv; charset=utf-8"

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
}

// Uploader writes objects to a configured GCS bucket.
type Uploader struct {
	client *storage.Client
	bucket string
	owned  bool
}

// New wraps an existing client.
func New(client *storage.Client, cfg Config) (*Uploader, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("bucket name is required")
	}
	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// Dial creates a client using Application Default Credentials. Close releases it.
func Dial(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("bucket name is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	u, err := New(client, cfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	u.owned = true
	return u, nil
}

// PutObject uploads r to path and returns a gs:// URI.
func (u *Uploader) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is required")
	}
	writer := u.client.Bucket(u.bucket).Object(path).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, r); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", u.bucket, path), nil
}

// UploadFile copies a local CSV file to object.
func (u *Uploader) UploadFile(ctx context.Context, localPath, object string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()
	return u.PutObject(ctx, object, CSVContentType, f)
}

// Close releases a client created by Dial.
func (u *Uploader) Close() error {
	if !u.owned {
		return nil
	}
	if err := u.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}
