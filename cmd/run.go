package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AhmedOthman21/Tech-jobs/internal/api"
	"github.com/AhmedOthman21/Tech-jobs/internal/artifact/gcs"
	"github.com/AhmedOthman21/Tech-jobs/internal/artifact/local"
	"github.com/AhmedOthman21/Tech-jobs/internal/artifact/memory"
	"github.com/AhmedOthman21/Tech-jobs/internal/bridge"
	"github.com/AhmedOthman21/Tech-jobs/internal/clock/system"
	"github.com/AhmedOthman21/Tech-jobs/internal/config"
	"github.com/AhmedOthman21/Tech-jobs/internal/dedup"
	dedupPostgres "github.com/AhmedOthman21/Tech-jobs/internal/dedup/postgres"
	"github.com/AhmedOthman21/Tech-jobs/internal/engine"
	"github.com/AhmedOthman21/Tech-jobs/internal/extractor"
	"github.com/AhmedOthman21/Tech-jobs/internal/fetcher"
	"github.com/AhmedOthman21/Tech-jobs/internal/fetcher/headless"
	"github.com/AhmedOthman21/Tech-jobs/internal/fetcher/static"
	"github.com/AhmedOthman21/Tech-jobs/internal/logging"
	notifierPubsub "github.com/AhmedOthman21/Tech-jobs/internal/notifier/pubsub"
	"github.com/AhmedOthman21/Tech-jobs/internal/notifier/telegram"
	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
	"github.com/AhmedOthman21/Tech-jobs/internal/relevance"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Executes one complete scrape-and-notify cycle",
		Long: `Fetches every configured source, extracts postings, filters out
previously-seen ones, sends an alert per new posting, and persists the
updated seen set before exiting.`,
		RunE: runCommand,
	}
	return cmd
}

func runCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx := cmd.Context()

	var srv *api.Server
	if cfg.Server.Enabled {
		srv = api.NewServer(cfg.Server.Port, logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown failed", zap.Error(err))
			}
		}()
	}

	fetch, cleanup, err := buildFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	store, persister, err := buildSeenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	eng, err := engine.New(
		engine.Config{
			Concurrency:   cfg.Pipeline.Concurrency,
			MaxJobAgeDays: cfg.Pipeline.MaxJobAgeDays,
			Heartbeat:     cfg.Pipeline.Heartbeat,
		},
		fetch,
		extractor.New(logger),
		notifier,
		store,
		logger,
		engine.WithPersister(persister),
		engine.WithRelevanceFilter(relevance.New(cfg.Filter.TitleKeywords, cfg.Filter.Keywords)),
	)
	if err != nil {
		return err
	}

	if srv != nil {
		srv.MarkReady()
	}

	summary, err := eng.Run(ctx, cfg.Sources)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run pipeline: %w", err)
	}
	logger.Info("done",
		zap.String("run_id", summary.RunID),
		zap.Int("new_postings", summary.TotalNew()),
		zap.Int("source_errors", summary.SourceErrors()),
	)
	return nil
}

// renderSwitchFetcher picks the headless or static fetcher per source.
type renderSwitchFetcher struct {
	static   pipeline.Fetcher
	headless pipeline.Fetcher
}

func (f renderSwitchFetcher) Fetch(ctx context.Context, src pipeline.SourceConfig) ([]pipeline.RawPage, error) {
	if src.Render && f.headless != nil {
		return f.headless.Fetch(ctx, src)
	}
	return f.static.Fetch(ctx, src)
}

func buildFetcher(cfg config.Config, logger *zap.Logger) (pipeline.Fetcher, func(), error) {
	policy := pipeline.NewExponentialRetryPolicy(cfg.Fetch.MaxAttempts, cfg.Fetch.BaseDelay, cfg.Fetch.MaxDelay)
	clock := system.New()
	fetchCfg := fetcher.Config{AttemptTimeout: cfg.Fetch.AttemptTimeout}

	staticRenderer := static.New(static.Config{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.AttemptTimeout,
	})
	out := renderSwitchFetcher{
		static: fetcher.New(staticRenderer, policy, clock, fetchCfg, logger),
	}

	cleanup := func() {}
	if anyRendered(cfg.Sources) {
		browser, err := headless.New(headless.Config{
			MaxParallel:       cfg.Fetch.MaxParallel,
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: cfg.Fetch.AttemptTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init headless renderer: %w", err)
		}
		out.headless = fetcher.New(browser, policy, clock, fetchCfg, logger)
		cleanup = browser.Close
	}
	return out, cleanup, nil
}

func anyRendered(sources []pipeline.SourceConfig) bool {
	for _, src := range sources {
		if src.Render {
			return true
		}
	}
	return false
}

// bridgePersister defers the store reference so the engine can flush it
// after the run.
type bridgePersister struct {
	bridge *bridge.Bridge
	store  *dedup.Store
}

func (p *bridgePersister) Persist(ctx context.Context) error {
	return p.bridge.Persist(ctx, p.store)
}

func buildSeenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (pipeline.SeenStore, engine.Persister, error) {
	if cfg.Dedup.Backend == "postgres" {
		// Postgres commits write through immediately, so there is nothing
		// to persist at end of run.
		store, err := dedupPostgres.New(ctx, dedupPostgres.Config{
			DSN:   cfg.Dedup.Postgres.DSN,
			Table: cfg.Dedup.Postgres.Table,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres seen store: %w", err)
		}
		return store, nil, nil
	}

	repo, err := buildArtifactRepo(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	b, err := bridge.New(repo, cfg.Pipeline.Identity, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := b.Restore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("restore seen store: %w", err)
	}
	return store, &bridgePersister{bridge: b, store: store}, nil
}

func buildArtifactRepo(ctx context.Context, cfg config.Config) (pipeline.ArtifactRepo, error) {
	switch cfg.Artifact.Provider {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init storage client: %w", err)
		}
		return gcs.New(client, gcs.Config{
			Bucket: cfg.Artifact.GCS.Bucket,
			Prefix: cfg.Artifact.GCS.Prefix,
		})
	case "local":
		return local.New(local.Config{BaseDir: cfg.Artifact.Local.BaseDir})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown artifact provider %q", cfg.Artifact.Provider)
	}
}

func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (pipeline.Notifier, func(), error) {
	switch cfg.Notifier.Transport {
	case "telegram":
		n, err := telegram.New(telegram.Config{
			Token:             cfg.Notifier.Telegram.Token,
			ChatID:            cfg.Notifier.Telegram.ChatID,
			IncludeDate:       cfg.Notifier.Telegram.IncludeDate,
			MessagesPerSecond: cfg.Notifier.Telegram.MessagesPerSecond,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init telegram notifier: %w", err)
		}
		return n, func() {}, nil
	case "pubsub":
		n, err := notifierPubsub.New(ctx, notifierPubsub.Config{
			ProjectID: cfg.Notifier.PubSub.ProjectID,
			TopicID:   cfg.Notifier.PubSub.Topic,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init pubsub notifier: %w", err)
		}
		return n, func() {
			if err := n.Close(); err != nil {
				logger.Warn("pubsub close failed", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier transport %q", cfg.Notifier.Transport)
	}
}
