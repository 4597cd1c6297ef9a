// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Pipeline PipelineConfig          `mapstructure:"pipeline"`
	Filter   FilterConfig            `mapstructure:"filter"`
	Sources  []pipeline.SourceConfig `mapstructure:"sources"`
	Fetch    FetchConfig             `mapstructure:"fetch"`
	Notifier NotifierConfig          `mapstructure:"notifier"`
	Dedup    DedupConfig             `mapstructure:"dedup"`
	Artifact ArtifactConfig          `mapstructure:"artifact"`
	Server   ServerConfig            `mapstructure:"server"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// PipelineConfig governs run-level behavior.
type PipelineConfig struct {
	Identity      string `mapstructure:"identity"`
	Concurrency   int    `mapstructure:"concurrency"`
	MaxJobAgeDays int    `mapstructure:"max_job_age_days"`
	Heartbeat     bool   `mapstructure:"heartbeat"`
}

// FilterConfig holds the relevance keyword lists.
type FilterConfig struct {
	TitleKeywords []string `mapstructure:"title_keywords"`
	Keywords      []string `mapstructure:"keywords"`
}

// FetchConfig configures retry and rendering behavior.
type FetchConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	MaxParallel    int           `mapstructure:"max_parallel"`
}

// NotifierConfig selects and configures the outbound transport.
type NotifierConfig struct {
	Transport string         `mapstructure:"transport"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
	PubSub    PubSubConfig   `mapstructure:"pubsub"`
}

// TelegramConfig holds Bot API credentials and throttling.
type TelegramConfig struct {
	Token             string  `mapstructure:"token"`
	ChatID            string  `mapstructure:"chat_id"`
	IncludeDate       bool    `mapstructure:"include_date"`
	MessagesPerSecond float64 `mapstructure:"messages_per_second"`
}

// PubSubConfig identifies the target topic.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// DedupConfig selects the seen-store backend.
type DedupConfig struct {
	Backend  string         `mapstructure:"backend"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls access to the relational seen store.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// ArtifactConfig selects where the seen-store artifact lives.
type ArtifactConfig struct {
	Provider string              `mapstructure:"provider"`
	GCS      GCSArtifactConfig   `mapstructure:"gcs"`
	Local    LocalArtifactConfig `mapstructure:"local"`
}

// GCSArtifactConfig points at a bucket and key prefix.
type GCSArtifactConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// LocalArtifactConfig points at a directory on disk.
type LocalArtifactConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// ServerConfig controls the optional health/metrics listener.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TECHJOBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only surfaces keys Viper already knows about during
	// Unmarshal. Credentials have no defaults on purpose, so bind them
	// explicitly; secrets then work from TECHJOBS_* env vars alone.
	for _, key := range []string{
		"notifier.telegram.token",
		"notifier.telegram.chat_id",
		"notifier.pubsub.project_id",
		"notifier.pubsub.topic",
		"dedup.postgres.dsn",
		"artifact.gcs.bucket",
		"artifact.gcs.prefix",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.identity", "tech-jobs")
	v.SetDefault("pipeline.concurrency", 2)
	v.SetDefault("pipeline.max_job_age_days", 7)
	v.SetDefault("pipeline.heartbeat", false)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.base_delay", 250*time.Millisecond)
	v.SetDefault("fetch.max_delay", 5*time.Second)
	v.SetDefault("fetch.attempt_timeout", 45*time.Second)
	v.SetDefault("fetch.user_agent", "techjobs-bot/0.1")
	v.SetDefault("fetch.max_parallel", 1)
	v.SetDefault("notifier.transport", "telegram")
	v.SetDefault("notifier.telegram.messages_per_second", 1)
	v.SetDefault("dedup.backend", "artifact")
	v.SetDefault("dedup.postgres.table", "seen_jobs")
	v.SetDefault("artifact.provider", "local")
	v.SetDefault("artifact.local.base_dir", "./state")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 9090)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Pipeline.Identity) == "" {
		return fmt.Errorf("pipeline.identity must be set")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name must be set", i)
		}
		if src.URL == "" {
			return fmt.Errorf("sources[%d].url must be set", i)
		}
		if src.Selectors.Card == "" || src.Selectors.Title == "" {
			return fmt.Errorf("sources[%d] requires card and title selectors", i)
		}
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0")
	}
	switch c.Notifier.Transport {
	case "telegram":
		if c.Notifier.Telegram.Token == "" || c.Notifier.Telegram.ChatID == "" {
			return fmt.Errorf("notifier.telegram requires token and chat_id")
		}
	case "pubsub":
		if c.Notifier.PubSub.ProjectID == "" || c.Notifier.PubSub.Topic == "" {
			return fmt.Errorf("notifier.pubsub requires project_id and topic")
		}
	default:
		return fmt.Errorf("notifier.transport must be telegram or pubsub, got %q", c.Notifier.Transport)
	}
	switch c.Dedup.Backend {
	case "artifact":
		switch c.Artifact.Provider {
		case "gcs":
			if c.Artifact.GCS.Bucket == "" {
				return fmt.Errorf("artifact.gcs.bucket must be set")
			}
		case "local":
			if c.Artifact.Local.BaseDir == "" {
				return fmt.Errorf("artifact.local.base_dir must be set")
			}
		case "memory":
		default:
			return fmt.Errorf("artifact.provider must be gcs, local, or memory, got %q", c.Artifact.Provider)
		}
	case "postgres":
		if c.Dedup.Postgres.DSN == "" {
			return fmt.Errorf("dedup.postgres.dsn must be set")
		}
	default:
		return fmt.Errorf("dedup.backend must be artifact or postgres, got %q", c.Dedup.Backend)
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when server is enabled")
	}
	return nil
}
