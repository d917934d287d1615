package future

import (
	"errors"
	"testing"

	"github.com/fetchplan/fetchplan/internal/pool"
	"github.com/stretchr/testify/require"
)

func TestResolvedRejected(t *testing.T) {
	v, err := Resolved(42).Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)

	sentinel := errors.New("boom")
	_, err = Rejected[int](sentinel).Wait()
	require.ErrorIs(t, err, sentinel)
}

func TestGoSchedulesOnExecutor(t *testing.T) {
	f := Go(pool.Unbounded{}, func() (int, error) { return 7, nil })
	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestGoRecoversPanic(t *testing.T) {
	f := Go(pool.Unbounded{}, func() (int, error) { panic("kaboom") })
	_, err := f.Wait()
	require.Error(t, err)
	require.Contains(t, err.Error(), "kaboom")
}

func TestMapAppliesPureFunction(t *testing.T) {
	f := Map(Resolved(3), func(v int) int { return v * 2 })
	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, 6, v)
}

func TestMapPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	f := Map(Rejected[int](sentinel), func(v int) int { return v * 2 })
	_, err := f.Wait()
	require.ErrorIs(t, err, sentinel)
}

func TestThenChainsFutures(t *testing.T) {
	f := Then(Resolved(3), func(v int) (*Future[int], error) {
		return Resolved(v + 1), nil
	})
	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, 4, v)
}

func TestThenPropagatesUpstreamError(t *testing.T) {
	sentinel := errors.New("boom")
	f := Then(Rejected[int](sentinel), func(v int) (*Future[int], error) {
		return Resolved(v + 1), nil
	})
	_, err := f.Wait()
	require.ErrorIs(t, err, sentinel)
}

func TestAllPreservesOrder(t *testing.T) {
	futures := []*Future[int]{Resolved(1), Resolved(2), Resolved(3)}
	vals, err := All(futures).Wait()
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, vals)
}

func TestAllReturnsFirstError(t *testing.T) {
	sentinel := errors.New("boom")
	futures := []*Future[int]{Resolved(1), Rejected[int](sentinel), Resolved(3)}
	_, err := All(futures).Wait()
	require.ErrorIs(t, err, sentinel)
}

func TestAllOfEmptySliceResolvesImmediately(t *testing.T) {
	vals, err := All([]*Future[int]{}).Wait()
	require.NoError(t, err)
	require.Empty(t, vals)
}
