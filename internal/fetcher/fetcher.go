// Package fetcher retrieves raw listing pages for configured sources, with
// retry, backoff, and pagination applied on top of an opaque Renderer.
package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// MaxPagesHardCap bounds pagination regardless of source configuration.
const MaxPagesHardCap = 25

// Config controls fetch behavior shared across sources.
type Config struct {
	AttemptTimeout time.Duration
}

// Fetcher implements pipeline.Fetcher.
type Fetcher struct {
	renderer pipeline.Renderer
	policy   pipeline.RetryPolicy
	clock    pipeline.Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Fetcher.
func New(renderer pipeline.Renderer, policy pipeline.RetryPolicy, clock pipeline.Clock, cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 45 * time.Second
	}
	return &Fetcher{
		renderer: renderer,
		policy:   policy,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Fetch renders the source's pages in order. Retries are per page; once a
// page exhausts its attempts, pagination stops. A source that yields no pages
// at all fails with a FetchError, which degrades only that source's result.
func (f *Fetcher) Fetch(ctx context.Context, src pipeline.SourceConfig) ([]pipeline.RawPage, error) {
	pages := src.Pages
	if pages <= 0 {
		pages = 1
	}
	if pages > MaxPagesHardCap {
		pages = MaxPagesHardCap
	}

	out := make([]pipeline.RawPage, 0, pages)
	for n := 1; n <= pages; n++ {
		pageURL, err := buildPageURL(src, n)
		if err != nil {
			return nil, &pipeline.FetchError{Source: src.Name, Err: err}
		}
		html, took, err := f.fetchPage(ctx, pageURL)
		if err != nil {
			if len(out) == 0 {
				pipeline.FetchErrors.WithLabelValues(src.Name).Inc()
				return nil, &pipeline.FetchError{Source: src.Name, Err: err}
			}
			f.logger.Warn("pagination stopped early",
				zap.String("source", src.Name),
				zap.Int("page", n),
				zap.Error(err))
			break
		}
		pipeline.PagesFetched.WithLabelValues(src.Name).Inc()
		out = append(out, pipeline.RawPage{
			Source:    src.Name,
			URL:       pageURL,
			Number:    n,
			HTML:      html,
			FetchedAt: f.clock.Now(),
			Duration:  took,
		})
	}
	return out, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (string, time.Duration, error) {
	attempt := 0
	for {
		html, took, err := f.renderOnce(ctx, pageURL)
		if err == nil {
			return html, took, nil
		}
		attempt++
		if !f.policy.ShouldRetry(err, attempt) {
			return "", 0, err
		}
		wait := f.policy.Backoff(attempt)
		f.logger.Debug("retrying page fetch",
			zap.String("url", pageURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (f *Fetcher) renderOnce(ctx context.Context, pageURL string) (string, time.Duration, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.AttemptTimeout)
	defer cancel()

	start := time.Now()
	html, err := f.renderer.Render(attemptCtx, pageURL)
	took := time.Since(start)
	if err != nil {
		return "", took, fmt.Errorf("render %s: %w", pageURL, err)
	}
	if Blocked(html) {
		return "", took, fmt.Errorf("render %s: %w", pageURL, ErrBlocked)
	}
	return html, took, nil
}

func buildPageURL(src pipeline.SourceConfig, page int) (string, error) {
	if page == 1 || src.PageParam == "" {
		return src.URL, nil
	}
	u, err := url.Parse(src.URL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	q := u.Query()
	q.Set(src.PageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
