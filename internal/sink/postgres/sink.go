// Package postgres stores film records in a Postgres table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
)

const defaultTable = "films"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for film rows.
type Config struct {
	DSN             string
	Table           string
	RunID           string
	MaxConns        int32
	MaxConnLifetime time.Duration
	// CreateTable issues CREATE TABLE IF NOT EXISTS on startup.
	CreateTable bool
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Sink inserts one row per record, tagged with the run ID.
type Sink struct {
	pool  execCloser
	table string
	runID string
}

var _ crawler.RecordSink = (*Sink)(nil)

// New connects a pool using cfg.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Sink{pool: pool, table: table, runID: cfg.RunID}
	if cfg.CreateTable {
		if err := s.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewWithPool constructs a sink from an existing pool.
func NewWithPool(pool execCloser, table, runID string) (*Sink, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Sink{pool: pool, table: name, runID: runID}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureTable creates the films table when it does not exist.
func (s *Sink) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	title TEXT NOT NULL,
	genre TEXT NOT NULL,
	director TEXT NOT NULL,
	country TEXT NOT NULL,
	year TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Write inserts rec.
func (s *Sink) Write(ctx context.Context, rec crawler.Record) error {
	if s == nil || s.pool == nil {
		return errors.New("postgres sink is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	title,
	genre,
	director,
	country,
	year
) VALUES (
	$1,$2,$3,$4,$5,$6
)`, s.table)
	if _, err := s.pool.Exec(ctx, query, s.runID, rec.Title, rec.Genre, rec.Director, rec.Country, rec.Year); err != nil {
		return fmt.Errorf("insert film: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Sink) Close(_ context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
