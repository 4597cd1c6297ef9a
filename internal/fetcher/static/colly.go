// Package static renders pages over plain HTTP using Colly, for sources that
// serve complete listings without JavaScript.
package static

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Renderer implements pipeline.Renderer using the Colly collector.
type Renderer struct {
	cfg  Config
	base *colly.Collector
}

// New builds a Renderer.
func New(cfg Config) *Renderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	return &Renderer{cfg: cfg, base: c}
}

// Render performs a single GET and returns the response body.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	collector := r.base.Clone()
	if r.cfg.UserAgent != "" {
		collector.UserAgent = r.cfg.UserAgent
	}
	collector.SetRequestTimeout(r.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})
	collector.OnError(func(resp *colly.Response, err error) {
		if resp != nil && resp.StatusCode != 0 {
			fetchErr = fmt.Errorf("status %d: %w", resp.StatusCode, err)
			return
		}
		fetchErr = err
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := collector.Visit(url); err != nil && fetchErr == nil {
			fetchErr = err
		}
		collector.Wait()
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-done:
	}
	if fetchErr != nil {
		return "", fmt.Errorf("visit %s: %w", url, fetchErr)
	}
	return string(body), nil
}
