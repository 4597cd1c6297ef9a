package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AhmedOthman21/Tech-jobs/internal/dedup"
	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
	"github.com/AhmedOthman21/Tech-jobs/internal/relevance"
)

type fakeFetcher struct {
	pages map[string][]pipeline.RawPage
	errs  map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, src pipeline.SourceConfig) ([]pipeline.RawPage, error) {
	if err := f.errs[src.Name]; err != nil {
		return nil, err
	}
	return f.pages[src.Name], nil
}

type fakeExtractor struct {
	postings map[string][]pipeline.JobPosting
}

func (f *fakeExtractor) Extract(_ []pipeline.RawPage, src pipeline.SourceConfig) ([]pipeline.JobPosting, error) {
	return f.postings[src.Name], nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []string
	failID string
}

func (f *fakeNotifier) Notify(_ context.Context, p pipeline.JobPosting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failID != "" && p.ID == f.failID {
		return &pipeline.NotifyError{PostingID: p.ID, Err: errors.New("transport down")}
	}
	f.sent = append(f.sent, p.ID)
	return nil
}

func (f *fakeNotifier) sentIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakePersister struct {
	called bool
	err    error
}

func (f *fakePersister) Persist(context.Context) error {
	f.called = true
	return f.err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func onePage(source string) []pipeline.RawPage {
	return []pipeline.RawPage{{Source: source, Number: 1, HTML: "<html></html>"}}
}

func posting(id, title string) pipeline.JobPosting {
	return pipeline.JobPosting{ID: id, Title: title, Source: "boards", URL: "https://example.com/" + id}
}

func newEngine(t *testing.T, cfg Config, f pipeline.Fetcher, x pipeline.Extractor, n pipeline.Notifier, s pipeline.SeenStore, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, f, x, n, s, zap.NewNop(), opts...)
	require.NoError(t, err)
	return e
}

func TestRunNotifiesOnlyUnseenPostings(t *testing.T) {
	t.Parallel()
	store := dedup.FromIDs([]string{"job-42"})
	notifier := &fakeNotifier{}
	e := newEngine(t, Config{},
		&fakeFetcher{pages: map[string][]pipeline.RawPage{"boards": onePage("boards")}},
		&fakeExtractor{postings: map[string][]pipeline.JobPosting{"boards": {
			posting("job-42", "Old role"),
			posting("job-77", "New role"),
		}}},
		notifier, store)

	summary, err := e.Run(context.Background(), []pipeline.SourceConfig{{Name: "boards"}})
	require.NoError(t, err)
	require.Equal(t, []string{"job-77"}, notifier.sentIDs())
	require.Equal(t, 1, summary.Results[0].New)
	require.Equal(t, 2, summary.Results[0].Extracted)

	seen, err := store.Seen(context.Background(), "job-77")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestRunIsolatesSourceFailures(t *testing.T) {
	t.Parallel()
	notifier := &fakeNotifier{}
	e := newEngine(t, Config{},
		&fakeFetcher{
			pages: map[string][]pipeline.RawPage{"good": onePage("good")},
			errs:  map[string]error{"bad": &pipeline.FetchError{Source: "bad", Err: errors.New("timeout")}},
		},
		&fakeExtractor{postings: map[string][]pipeline.JobPosting{"good": {posting("job-1", "Role")}}},
		notifier, dedup.NewStore())

	summary, err := e.Run(context.Background(), []pipeline.SourceConfig{{Name: "bad"}, {Name: "good"}})
	require.NoError(t, err)
	require.Equal(t, 1, summary.SourceErrors())
	require.Equal(t, []string{"job-1"}, notifier.sentIDs())

	var fetchErr *pipeline.FetchError
	require.ErrorAs(t, summary.Results[0].Err, &fetchErr)
	require.NoError(t, summary.Results[1].Err)
}

func TestRunCommitsFailedNotifications(t *testing.T) {
	t.Parallel()
	store := dedup.NewStore()
	notifier := &fakeNotifier{failID: "job-2"}
	e := newEngine(t, Config{},
		&fakeFetcher{pages: map[string][]pipeline.RawPage{"boards": onePage("boards")}},
		&fakeExtractor{postings: map[string][]pipeline.JobPosting{"boards": {
			posting("job-1", "Role A"),
			posting("job-2", "Role B"),
		}}},
		notifier, store)

	summary, err := e.Run(context.Background(), []pipeline.SourceConfig{{Name: "boards"}})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Results[0].Notified)
	require.Equal(t, 1, summary.Results[0].NotifyFailed)
	require.NoError(t, summary.Results[0].Err)

	// The failed posting is committed so it will not alert twice.
	seen, err := store.Seen(context.Background(), "job-2")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestRunPersistFailureIsFatal(t *testing.T) {
	t.Parallel()
	persister := &fakePersister{err: &pipeline.PersistError{Err: errors.New("bucket gone")}}
	e := newEngine(t, Config{},
		&fakeFetcher{pages: map[string][]pipeline.RawPage{"boards": onePage("boards")}},
		&fakeExtractor{postings: map[string][]pipeline.JobPosting{"boards": {posting("job-1", "Role")}}},
		&fakeNotifier{}, dedup.NewStore(),
		WithPersister(persister))

	_, err := e.Run(context.Background(), []pipeline.SourceConfig{{Name: "boards"}})
	var persistErr *pipeline.PersistError
	require.ErrorAs(t, err, &persistErr)
	require.True(t, persister.called)
}

func TestRunSkipsPersistWhenCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	persister := &fakePersister{}
	e := newEngine(t, Config{},
		&fakeFetcher{},
		&fakeExtractor{},
		&fakeNotifier{}, dedup.NewStore(),
		WithPersister(persister))

	_, err := e.Run(ctx, []pipeline.SourceConfig{{Name: "boards"}})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, persister.called)
}

func TestRunCommitFailureDegradesSource(t *testing.T) {
	t.Parallel()
	e := newEngine(t, Config{},
		&fakeFetcher{pages: map[string][]pipeline.RawPage{"boards": onePage("boards")}},
		&fakeExtractor{postings: map[string][]pipeline.JobPosting{"boards": {posting("job-1", "Role")}}},
		&fakeNotifier{}, failingStore{})

	summary, err := e.Run(context.Background(), []pipeline.SourceConfig{{Name: "boards"}})
	require.NoError(t, err)
	var commitErr *pipeline.CommitError
	require.ErrorAs(t, summary.Results[0].Err, &commitErr)
	require.Equal(t, "boards", commitErr.Source)
}

type failingStore struct{}

func (failingStore) Seen(context.Context, string) (bool, error) { return false, nil }
func (failingStore) Commit(context.Context, []string) error {
	return errors.New("disk full")
}

func TestRunAppliesAgeAndRelevanceFilters(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	old := posting("job-old", "DevOps Engineer")
	old.PostedAt = now.AddDate(0, 0, -10)
	recent := posting("job-recent", "DevOps Engineer")
	recent.PostedAt = now.AddDate(0, 0, -2)
	undated := posting("job-undated", "Cloud Engineer")
	offTopic := posting("job-off", "Accountant")

	notifier := &fakeNotifier{}
	e := newEngine(t, Config{MaxJobAgeDays: 7},
		&fakeFetcher{pages: map[string][]pipeline.RawPage{"boards": onePage("boards")}},
		&fakeExtractor{postings: map[string][]pipeline.JobPosting{"boards": {old, recent, undated, offTopic}}},
		notifier, dedup.NewStore(),
		WithClock(fixedClock{t: now}),
		WithRelevanceFilter(relevance.New([]string{"engineer"}, nil)))

	summary, err := e.Run(context.Background(), []pipeline.SourceConfig{{Name: "boards"}})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Results[0].New)
	require.ElementsMatch(t, []string{"job-recent", "job-undated"}, notifier.sentIDs())
}

func TestRunHeartbeatWhenNothingNew(t *testing.T) {
	t.Parallel()
	notifier := &fakeNotifier{}
	e := newEngine(t, Config{Heartbeat: true},
		&fakeFetcher{pages: map[string][]pipeline.RawPage{"boards": onePage("boards")}},
		&fakeExtractor{},
		notifier, dedup.NewStore())

	_, err := e.Run(context.Background(), []pipeline.SourceConfig{{Name: "boards"}})
	require.NoError(t, err)
	sent := notifier.sentIDs()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0], "heartbeat-")
}

func TestRunConcurrencyLimitRespected(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	inFlight, peak := 0, 0
	fetch := fetchFunc(func(ctx context.Context, src pipeline.SourceConfig) ([]pipeline.RawPage, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return onePage(src.Name), nil
	})

	e := newEngine(t, Config{Concurrency: 2}, fetch, &fakeExtractor{}, &fakeNotifier{}, dedup.NewStore())

	sources := make([]pipeline.SourceConfig, 6)
	for i := range sources {
		sources[i] = pipeline.SourceConfig{Name: fmt.Sprintf("src-%d", i)}
	}
	_, err := e.Run(context.Background(), sources)
	require.NoError(t, err)
	require.LessOrEqual(t, peak, 2)
}

type fetchFunc func(ctx context.Context, src pipeline.SourceConfig) ([]pipeline.RawPage, error)

func (f fetchFunc) Fetch(ctx context.Context, src pipeline.SourceConfig) ([]pipeline.RawPage, error) {
	return f(ctx, src)
}
