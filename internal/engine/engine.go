// Package engine orchestrates one complete run: fetch, extract, filter,
// deduplicate, notify, commit, then persist the seen store.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AhmedOthman21/Tech-jobs/internal/dedup"
	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
	"github.com/AhmedOthman21/Tech-jobs/internal/relevance"
)

// Persister flushes the seen store to durable storage at end of run.
// Backends that write through on Commit (such as Postgres) do not need one.
type Persister interface {
	Persist(ctx context.Context) error
}

// Config tunes run behavior.
type Config struct {
	// Concurrency bounds how many sources are processed at once.
	Concurrency int
	// MaxJobAgeDays drops postings older than this many days. Postings
	// with an unknown date are kept. Zero disables the filter.
	MaxJobAgeDays int
	// Heartbeat sends a summary notification even when no new postings
	// were found, so a silent run is distinguishable from a broken one.
	Heartbeat bool
}

// Engine wires the pipeline stages together. All collaborators are
// injected; the engine owns only the run loop.
type Engine struct {
	cfg       Config
	fetcher   pipeline.Fetcher
	extractor pipeline.Extractor
	notifier  pipeline.Notifier
	store     pipeline.SeenStore
	persister Persister
	filter    *relevance.Filter
	clock     pipeline.Clock
	logger    *zap.Logger
}

// Option configures optional collaborators.
type Option func(*Engine)

// WithPersister sets the end-of-run persister.
func WithPersister(p Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithRelevanceFilter sets the keyword filter applied before dedup.
func WithRelevanceFilter(f *relevance.Filter) Option {
	return func(e *Engine) { e.filter = f }
}

// WithClock overrides the time source.
func WithClock(c pipeline.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New builds an Engine. Fetcher, extractor, notifier, and store are required.
func New(cfg Config, fetcher pipeline.Fetcher, extractor pipeline.Extractor, notifier pipeline.Notifier, store pipeline.SeenStore, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if fetcher == nil || extractor == nil || notifier == nil || store == nil {
		return nil, fmt.Errorf("engine: fetcher, extractor, notifier, and store are required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		notifier:  notifier,
		store:     store,
		clock:     realClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Run processes every source, then persists the seen store. A failing
// source degrades its own result only; the returned error covers run-fatal
// conditions: a cancelled context or a persist failure.
func (e *Engine) Run(ctx context.Context, sources []pipeline.SourceConfig) (pipeline.RunSummary, error) {
	summary := pipeline.RunSummary{
		RunID:   uuid.NewString(),
		Started: e.clock.Now(),
		Results: make([]pipeline.RunResult, len(sources)),
	}
	logger := e.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("run started", zap.Int("sources", len(sources)))

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			summary.Results[i] = e.runSource(ctx, src, logger)
			return nil
		})
	}
	g.Wait()
	summary.Finished = e.clock.Now()

	if err := ctx.Err(); err != nil {
		logger.Warn("run cancelled, skipping persist")
		return summary, err
	}
	if e.persister != nil {
		if err := e.persister.Persist(ctx); err != nil {
			logger.Error("persist failed, next run will re-notify", zap.Error(err))
			return summary, err
		}
	}
	if e.cfg.Heartbeat && summary.TotalNew() == 0 {
		e.sendHeartbeat(ctx, summary, logger)
	}

	logger.Info("run finished",
		zap.Int("new", summary.TotalNew()),
		zap.Int("source_errors", summary.SourceErrors()),
		zap.Duration("elapsed", summary.Finished.Sub(summary.Started)),
	)
	return summary, nil
}

func (e *Engine) runSource(ctx context.Context, src pipeline.SourceConfig, logger *zap.Logger) pipeline.RunResult {
	result := pipeline.RunResult{Source: src.Name}
	log := logger.With(zap.String("source", src.Name))

	pages, err := e.fetcher.Fetch(ctx, src)
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		result.Err = err
		return result
	}
	result.Pages = len(pages)

	postings, err := e.extractor.Extract(pages, src)
	if err != nil {
		// Partial extraction still yields postings; only a total loss
		// fails the source.
		if len(postings) == 0 {
			log.Error("extract failed", zap.Error(err))
			result.Err = err
			return result
		}
		log.Warn("extract degraded", zap.Error(err), zap.Int("recovered", len(postings)))
	}
	result.Extracted = len(postings)

	postings = e.applyAgeFilter(postings)
	if e.filter != nil {
		postings = e.filter.Apply(postings)
	}

	fresh, err := dedup.FilterNew(ctx, e.store, postings)
	if err != nil {
		log.Error("seen-store lookup failed", zap.Error(err))
		result.Err = err
		return result
	}
	result.New = len(fresh)
	pipeline.PostingsNew.WithLabelValues(src.Name).Add(float64(len(fresh)))

	ids := make([]string, 0, len(fresh))
	for _, p := range fresh {
		ids = append(ids, p.ID)
		if err := e.notifier.Notify(ctx, p); err != nil {
			// The id is committed regardless so a flaky transport cannot
			// cause duplicate alerts on the next run.
			log.Warn("notification failed, id committed anyway",
				zap.String("posting_id", p.ID), zap.Error(err))
			result.NotifyFailed++
			continue
		}
		result.Notified++
	}

	if len(ids) > 0 {
		if err := e.store.Commit(ctx, ids); err != nil {
			commitErr := &pipeline.CommitError{Source: src.Name, Err: err}
			log.Error("commit failed", zap.Error(commitErr))
			result.Err = commitErr
			return result
		}
	}

	log.Info("source processed",
		zap.Int("pages", result.Pages),
		zap.Int("extracted", result.Extracted),
		zap.Int("new", result.New),
		zap.Int("notified", result.Notified),
	)
	return result
}

func (e *Engine) applyAgeFilter(postings []pipeline.JobPosting) []pipeline.JobPosting {
	if e.cfg.MaxJobAgeDays <= 0 {
		return postings
	}
	cutoff := e.clock.Now().AddDate(0, 0, -e.cfg.MaxJobAgeDays)
	out := make([]pipeline.JobPosting, 0, len(postings))
	for _, p := range postings {
		if p.PostedAt.IsZero() || !p.PostedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) sendHeartbeat(ctx context.Context, summary pipeline.RunSummary, logger *zap.Logger) {
	hb := pipeline.JobPosting{
		ID:     "heartbeat-" + summary.RunID,
		Title:  "No new postings",
		Source: "pipeline",
		Description: fmt.Sprintf("Checked %d sources, %d errors.",
			len(summary.Results), summary.SourceErrors()),
	}
	if err := e.notifier.Notify(ctx, hb); err != nil {
		logger.Warn("heartbeat delivery failed", zap.Error(err))
	}
}
