package local

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	t.Parallel()
	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	payload := []byte("job-1\njob-2\n")
	require.NoError(t, store.Upload(ctx, "tech-jobs/posted_jobs.txt", payload))

	got, err := store.Download(ctx, "tech-jobs/posted_jobs.txt")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestUploadReplacesPrevious(t *testing.T) {
	t.Parallel()
	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "state.txt", []byte("old")))
	require.NoError(t, store.Upload(ctx, "state.txt", []byte("new")))

	got, err := store.Download(ctx, "state.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), got)
}

func TestDownloadMissingReturnsNotFound(t *testing.T) {
	t.Parallel()
	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "never-written.txt")
	require.True(t, errors.Is(err, pipeline.ErrArtifactNotFound))
}

func TestRejectsPathTraversal(t *testing.T) {
	t.Parallel()
	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	err = store.Upload(context.Background(), "../escape.txt", []byte("x"))
	require.Error(t, err)
}

func TestRequiresBaseDir(t *testing.T) {
	t.Parallel()
	_, err := New(Config{})
	require.Error(t, err)
}
