package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for the run-ending failure kinds the runner can report.
// Use errors.Is to test for a kind; use errors.As with *FetchError to
// recover the offending (sourceName, identity), or with *BatchShapeError to
// recover the source name and the missing identities.
var (
	// ErrBindFailed means a Bind continuation panicked, returned a nil
	// Node, or Traverse's internal type assertion over the resolved slice
	// failed. Go's static typing makes a non-Node return from Bind's
	// function impossible at compile time, so the runtime failure mode is
	// instead a panicking or misbehaving continuation.
	ErrBindFailed = errors.New("fetch: bind continuation failed")

	// ErrMapFailed means a Map transform panicked while being applied.
	ErrMapFailed = errors.New("fetch: map transform panicked")

	// ErrBatchShape means a BatchedSource's FetchMulti resolved but its
	// result map was missing an identity that was requested.
	ErrBatchShape = errors.New("fetch: batch response missing identities")

	// ErrNoProgress means an iteration completed without shrinking the
	// frontier and without a Bind expanding — the runner's progress
	// invariant was violated, indicating a misbehaving DataSource or a
	// stale cache seed.
	ErrNoProgress = errors.New("fetch: run made no progress")
)

// FetchError wraps a failure from a single DataSource.Fetch call, or the
// error returned by a whole BatchedSource.FetchMulti call; in the batch
// case Identity is nil.
type FetchError struct {
	SourceName string
	Identity   any
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch: %s[%v]: %v", e.SourceName, e.Identity, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// BatchShapeError records which identities a BatchedSource's FetchMulti
// failed to return, alongside ErrBatchShape.
type BatchShapeError struct {
	SourceName string
	Missing    []any
}

func (e *BatchShapeError) Error() string {
	return fmt.Sprintf("fetch: %s: batch response missing %d of the requested identities: %v",
		e.SourceName, len(e.Missing), e.Missing)
}

func (e *BatchShapeError) Unwrap() error { return ErrBatchShape }

// ExecutorError wraps a submission failure from the configured pool.Executor.
type ExecutorError struct {
	SourceName string
	Err        error
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("fetch: %s: executor rejected dispatch: %v", e.SourceName, e.Err)
}

func (e *ExecutorError) Unwrap() error { return e.Err }
