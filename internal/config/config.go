// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/wikifilm-crawler/internal/locale"
)

// EnvPrefix is prepended to every environment override, e.g. FILMCRAWLER_CRAWLER_CONCURRENCY.
const EnvPrefix = "FILMCRAWLER"

// DefaultSeed is the root category crawled when no seed is configured.
const DefaultSeed = "https://ru.wikipedia.org/wiki/Категория:Фильмы_по_алфавиту"

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Locale  string        `mapstructure:"locale"`
	Output  OutputConfig  `mapstructure:"output"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs traversal and politeness.
type CrawlerConfig struct {
	Seeds          []string      `mapstructure:"seeds"`
	UserAgent      string        `mapstructure:"user_agent"`
	RespectRobots  bool          `mapstructure:"respect_robots"`
	Concurrency    int           `mapstructure:"concurrency"`
	Delay          time.Duration `mapstructure:"delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRequests    int           `mapstructure:"max_requests"`
	AllowedDomains []string      `mapstructure:"allowed_domains"`
}

// OutputConfig sets the CSV destination and optional GCS upload.
type OutputConfig struct {
	CSVPath   string `mapstructure:"csv_path"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSObject string `mapstructure:"gcs_object"`
}

// DBConfig enables the Postgres sink when DSN is set.
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	Table       string `mapstructure:"table"`
	CreateTable bool   `mapstructure:"create_table"`
	MaxConns    int32  `mapstructure:"max_conns"`
}

// PubSubConfig enables the Pub/Sub sink when both fields are set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig starts the status server when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features and file output.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"seed":         "crawler.seeds",
	"concurrency":  "crawler.concurrency",
	"max-requests": "crawler.max_requests",
	"output":       "output.csv_path",
	"locale":       "locale",
	"metrics-addr": "metrics.addr",
}

// Load builds a Config from defaults, an optional file, the environment and flags,
// in increasing order of precedence.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Crawler.Seeds = splitList(cfg.Crawler.Seeds)
	cfg.Crawler.AllowedDomains = splitList(cfg.Crawler.AllowedDomains)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.seeds", []string{DefaultSeed})
	v.SetDefault("crawler.user_agent", "WikiFilmBot/1.0 (+https://github.com/JakeFAU/wikifilm-crawler)")
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.delay", 800*time.Millisecond)
	v.SetDefault("crawler.request_timeout", 15*time.Second)
	v.SetDefault("crawler.max_requests", 0)
	v.SetDefault("crawler.allowed_domains", []string{"ru.wikipedia.org"})
	v.SetDefault("locale", "ru")
	v.SetDefault("output.csv_path", "films.csv")
	v.SetDefault("output.gcs_object", "films.csv")
	v.SetDefault("db.table", "films")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Crawler.Seeds) == 0 {
		return errors.New("crawler.seeds must not be empty")
	}
	if c.Crawler.Concurrency <= 0 {
		return errors.New("crawler.concurrency must be > 0")
	}
	if c.Crawler.Delay < 0 {
		return errors.New("crawler.delay must be >= 0")
	}
	if c.Crawler.RequestTimeout <= 0 {
		return errors.New("crawler.request_timeout must be > 0")
	}
	if c.Crawler.MaxRequests < 0 {
		return errors.New("crawler.max_requests must be >= 0")
	}
	if _, err := locale.Lookup(c.Locale); err != nil {
		return fmt.Errorf("locale: %w", err)
	}
	if c.Output.CSVPath == "" {
		return errors.New("output.csv_path is required")
	}
	if c.Output.GCSBucket != "" && c.Output.GCSObject == "" {
		return errors.New("output.gcs_object must be set when output.gcs_bucket is set")
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return errors.New("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}
