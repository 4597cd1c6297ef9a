package pipeline

import (
	"context"
	"time"
)

// Renderer retrieves a single rendered listing page. Implementations hide
// whether a headless browser or a plain HTTP client produced the HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Fetcher retrieves all raw pages for one source, applying retry and
// pagination policy.
type Fetcher interface {
	Fetch(ctx context.Context, src SourceConfig) ([]RawPage, error)
}

// Extractor parses raw pages into structured postings using the source's
// selector rules.
type Extractor interface {
	Extract(pages []RawPage, src SourceConfig) ([]JobPosting, error)
}

// Notifier delivers one message per posting through an external transport.
type Notifier interface {
	Notify(ctx context.Context, posting JobPosting) error
}

// SeenStore is the durable set of previously-notified posting identifiers.
// Commit is idempotent: committing an id that is already present is a no-op.
type SeenStore interface {
	Seen(ctx context.Context, id string) (bool, error)
	Commit(ctx context.Context, ids []string) error
}

// ArtifactRepo stores named artifacts scoped by pipeline identity. Download
// returns ErrArtifactNotFound when no artifact exists under the name.
type ArtifactRepo interface {
	Upload(ctx context.Context, name string, data []byte) error
	Download(ctx context.Context, name string) ([]byte, error)
}

// RetryPolicy governs retry behavior for fetch and notify attempts.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
