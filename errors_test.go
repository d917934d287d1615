package fetch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("boom")
	err := &FetchError{SourceName: "Simple", Identity: 1, Err: cause}
	require.ErrorIs(t, err, cause)
}

func TestBatchShapeErrorUnwrapsToSentinel(t *testing.T) {
	err := &BatchShapeError{SourceName: "Simple", Missing: []any{1, 2}}
	require.ErrorIs(t, err, ErrBatchShape)
	require.Contains(t, err.Error(), "Simple")
}

func TestExecutorErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("rejected")
	err := &ExecutorError{SourceName: "Simple", Err: cause}
	require.ErrorIs(t, err, cause)
}
