// Package bridge reconciles the seen store with an external artifact
// repository, carrying dedup state across otherwise-stateless runs.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/AhmedOthman21/Tech-jobs/internal/dedup"
	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// DefaultArtifactName is the file holding the line-delimited id set.
const DefaultArtifactName = "posted_jobs.txt"

// Bridge loads the seen store at process start and uploads it at process end.
// It assumes at most one run holds the store at a time; concurrent runs for
// the same identity are last-persist-wins.
type Bridge struct {
	repo   pipeline.ArtifactRepo
	name   string
	logger *zap.Logger
}

// New builds a bridge scoped by pipeline identity.
func New(repo pipeline.ArtifactRepo, identity string, logger *zap.Logger) (*Bridge, error) {
	if repo == nil {
		return nil, fmt.Errorf("artifact repository is required")
	}
	if strings.TrimSpace(identity) == "" {
		return nil, fmt.Errorf("pipeline identity is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		repo:   repo,
		name:   path.Join(identity, DefaultArtifactName),
		logger: logger,
	}, nil
}

// Restore loads the most recent persisted snapshot. A missing artifact is the
// normal first-run state and yields an empty store; any other failure is
// surfaced to the caller and is run-fatal.
func (b *Bridge) Restore(ctx context.Context) (*dedup.Store, error) {
	data, err := b.repo.Download(ctx, b.name)
	if err != nil {
		if errors.Is(err, pipeline.ErrArtifactNotFound) {
			b.logger.Info("no prior seen-store artifact, starting empty",
				zap.String("artifact", b.name))
			return dedup.NewStore(), nil
		}
		return nil, fmt.Errorf("restore seen store: %w", err)
	}

	ids := make([]string, 0, 64)
	for _, line := range strings.Split(string(data), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	store := dedup.FromIDs(ids)
	b.logger.Info("seen store restored",
		zap.String("artifact", b.name),
		zap.Int("ids", store.Len()))
	return store, nil
}

// Persist uploads the store as the new snapshot, replacing the previous one.
// It is called exactly once, after all commits for the run are finalized. A
// failure here means the next run will re-notify this run's postings, so it
// carries a distinct error type for exit-code handling.
func (b *Bridge) Persist(ctx context.Context, store *dedup.Store) error {
	snapshot := store.Snapshot()
	var sb strings.Builder
	for _, id := range snapshot {
		sb.WriteString(id)
		sb.WriteByte('\n')
	}
	if err := b.repo.Upload(ctx, b.name, []byte(sb.String())); err != nil {
		return &pipeline.PersistError{Err: err}
	}
	b.logger.Info("seen store persisted",
		zap.String("artifact", b.name),
		zap.Int("ids", len(snapshot)))
	return nil
}
