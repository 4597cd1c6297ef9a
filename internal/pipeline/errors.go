package pipeline

import (
	"errors"
	"fmt"
)

// ErrArtifactNotFound is returned by ArtifactRepo.Download when no prior
// artifact exists. The state bridge treats it as "first run", not a failure.
var ErrArtifactNotFound = errors.New("artifact not found")

// FetchError reports that a source could not be fetched after retries were
// exhausted. It degrades the source's RunResult without aborting the run.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractError reports a structural parse mismatch on one page.
type ExtractError struct {
	Source string
	Page   int
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s page %d: %v", e.Source, e.Page, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// NotifyError reports a failed delivery for a single posting. The posting's
// id is still committed to the seen store.
type NotifyError struct {
	PostingID string
	Err       error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.PostingID, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// CommitError reports a seen-store write failure for a source's batch.
type CommitError struct {
	Source string
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s: %v", e.Source, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// PersistError reports a state-bridge failure. It is run-fatal: the next run
// will re-observe postings notified in this one.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist seen store: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable for RetryPolicy implementations.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
