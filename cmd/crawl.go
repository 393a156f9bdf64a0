package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/wikifilm-crawler/internal/classifier"
	"github.com/JakeFAU/wikifilm-crawler/internal/config"
	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
	"github.com/JakeFAU/wikifilm-crawler/internal/extractor"
	collyfetcher "github.com/JakeFAU/wikifilm-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/wikifilm-crawler/internal/frontier"
	"github.com/JakeFAU/wikifilm-crawler/internal/id/uuid"
	"github.com/JakeFAU/wikifilm-crawler/internal/locale"
	"github.com/JakeFAU/wikifilm-crawler/internal/logging"
	"github.com/JakeFAU/wikifilm-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/wikifilm-crawler/internal/server"
	"github.com/JakeFAU/wikifilm-crawler/internal/sink"
	csvsink "github.com/JakeFAU/wikifilm-crawler/internal/sink/csv"
	pgsink "github.com/JakeFAU/wikifilm-crawler/internal/sink/postgres"
	pubsubsink "github.com/JakeFAU/wikifilm-crawler/internal/sink/pubsub"
	"github.com/JakeFAU/wikifilm-crawler/internal/storage/gcs"
)

// finalizeTimeout bounds sink flushes and the upload after the crawl ends.
const finalizeTimeout = 2 * time.Minute

// newCrawlCmd creates the 'crawl' subcommand.
func newCrawlCmd(cfgFile *string) *cobra.Command {
	var showProgress bool
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls the seed categories and writes film records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			var bar io.Writer
			if showProgress {
				bar = cmd.ErrOrStderr()
			}
			return runCrawl(cmd.Context(), cfg, bar)
		},
	}
	flags := cmd.Flags()
	flags.StringSlice("seed", nil, "seed category URL (repeatable)")
	flags.String("output", "", "CSV output path")
	flags.Int("concurrency", 0, "number of concurrent fetches")
	flags.Int("max-requests", 0, "stop after this many fetches (0 = unbounded)")
	flags.String("locale", "", "site locale (ru, en)")
	flags.String("metrics-addr", "", "serve /healthz, /progress and /metrics on this address")
	flags.BoolVar(&showProgress, "progress", false, "show a progress bar on stderr")
	return cmd
}

func runCrawl(ctx context.Context, cfg config.Config, progressOut io.Writer) error {
	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	runID, err := uuid.New().NewID()
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID))

	loc, err := locale.Lookup(cfg.Locale)
	if err != nil {
		return err
	}

	csvOut, records, err := buildSinks(ctx, cfg, runID, logger)
	if err != nil {
		return err
	}
	if progressOut != nil {
		records = newProgressSink(records, progressOut)
	}

	sched := frontier.New(
		frontier.Config{
			Workers:        cfg.Crawler.Concurrency,
			MaxRequests:    cfg.Crawler.MaxRequests,
			AllowedDomains: cfg.Crawler.AllowedDomains,
		},
		loc,
		collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.Crawler.UserAgent,
			RespectRobots: cfg.Crawler.RespectRobots,
			Timeout:       cfg.Crawler.RequestTimeout,
		}),
		ratelimit.New(ratelimit.Config{Delay: cfg.Crawler.Delay}),
		classifier.New(loc),
		extractor.New(loc),
		records,
		logger,
	)

	srvCtx, stopServer := context.WithCancel(ctx)
	srvDone := make(chan struct{})
	if cfg.Metrics.Addr != "" {
		srv := server.New(runID, func() any { return sched.Progress() }, logger)
		go func() {
			defer close(srvDone)
			if serr := srv.ListenAndServe(srvCtx, cfg.Metrics.Addr); serr != nil {
				logger.Warn("Status server stopped", zap.Error(serr))
			}
		}()
	} else {
		close(srvDone)
	}
	defer func() {
		stopServer()
		<-srvDone
	}()

	logger.Info("Starting crawl",
		zap.Strings("seeds", cfg.Crawler.Seeds),
		zap.String("locale", loc.Name),
		zap.Int("concurrency", cfg.Crawler.Concurrency),
		zap.Duration("delay", cfg.Crawler.Delay),
		zap.String("output", csvOut.Path()),
	)
	start := time.Now()
	stats, runErr := sched.Run(ctx, cfg.Crawler.Seeds)

	finalizeCtx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	if cerr := records.Close(finalizeCtx); cerr != nil {
		logger.Error("Failed to close sinks", zap.Error(cerr))
		if runErr == nil {
			runErr = fmt.Errorf("close sinks: %w", cerr)
		}
	}

	fields := []zap.Field{
		zap.Int("requests", stats.Requests),
		zap.Int("category_pages", stats.CategoryPages),
		zap.Int("article_pages", stats.ArticlePages),
		zap.Int("records", stats.Records),
		zap.Int("rejected", stats.Rejected),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("fetch_errors", stats.FetchErrors),
		zap.Int("parse_errors", stats.ParseErrors),
		zap.Bool("truncated", stats.Truncated),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch {
	case errors.Is(runErr, context.Canceled):
		logger.Warn("Crawl interrupted; records written so far are kept", fields...)
		return nil
	case runErr != nil:
		logger.Error("Crawl failed", append(fields, zap.Error(runErr))...)
		return fmt.Errorf("run crawler: %w", runErr)
	}
	logger.Info("Crawl finished", fields...)

	if cfg.Output.GCSBucket != "" {
		if err := uploadCSV(finalizeCtx, cfg.Output, csvOut.Path(), logger); err != nil {
			return err
		}
	}
	return nil
}

// buildSinks opens the CSV file plus whichever optional sinks are configured.
func buildSinks(ctx context.Context, cfg config.Config, runID string, logger *zap.Logger) (*csvsink.Sink, crawler.RecordSink, error) {
	csvOut, err := csvsink.New(cfg.Output.CSVPath)
	if err != nil {
		return nil, nil, err
	}
	sinks := sink.Multi{csvOut}
	closeAll := func() { _ = sinks.Close(ctx) }

	if cfg.DB.DSN != "" {
		pg, err := pgsink.New(ctx, pgsink.Config{
			DSN:         cfg.DB.DSN,
			Table:       cfg.DB.Table,
			RunID:       runID,
			MaxConns:    cfg.DB.MaxConns,
			CreateTable: cfg.DB.CreateTable,
		})
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("init postgres sink: %w", err)
		}
		sinks = append(sinks, pg)
		logger.Info("Postgres sink enabled", zap.String("table", cfg.DB.Table))
	}
	if cfg.PubSub.ProjectID != "" {
		ps, err := pubsubsink.New(ctx, pubsubsink.Config{
			ProjectID: cfg.PubSub.ProjectID,
			TopicName: cfg.PubSub.TopicName,
			RunID:     runID,
		})
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("init pubsub sink: %w", err)
		}
		sinks = append(sinks, ps)
		logger.Info("Pub/Sub sink enabled", zap.String("topic", cfg.PubSub.TopicName))
	}
	return csvOut, sinks, nil
}

func uploadCSV(ctx context.Context, out config.OutputConfig, path string, logger *zap.Logger) error {
	uploader, err := gcs.Dial(ctx, gcs.Config{Bucket: out.GCSBucket})
	if err != nil {
		return fmt.Errorf("init gcs: %w", err)
	}
	defer func() {
		if cerr := uploader.Close(); cerr != nil {
			logger.Warn("Failed to close GCS client", zap.Error(cerr))
		}
	}()
	uri, err := uploader.UploadFile(ctx, path, out.GCSObject)
	if err != nil {
		return fmt.Errorf("upload csv: %w", err)
	}
	logger.Info("Uploaded CSV", zap.String("uri", uri))
	return nil
}

// progressSink ticks a progress bar for every record written.
type progressSink struct {
	crawler.RecordSink
	bar *progressbar.ProgressBar
}

func newProgressSink(inner crawler.RecordSink, w io.Writer) *progressSink {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("films"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("films"),
		progressbar.OptionSpinnerType(14),
	)
	return &progressSink{RecordSink: inner, bar: bar}
}

func (p *progressSink) Write(ctx context.Context, rec crawler.Record) error {
	if err := p.RecordSink.Write(ctx, rec); err != nil {
		return err
	}
	_ = p.bar.Add(1)
	return nil
}

func (p *progressSink) Close(ctx context.Context) error {
	_ = p.bar.Finish()
	return p.RecordSink.Close(ctx)
}
