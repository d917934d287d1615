package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func noHits(string, any) (any, bool) { return nil, false }

func TestPlantValueIsUnchanged(t *testing.T) {
	n, expanded, err := plant(Value(1), noHits)
	require.NoError(t, err)
	require.False(t, expanded)
	v, _ := valueOf(n)
	require.Equal(t, 1, v)
}

func TestPlantSourceWithoutHitIsUnchanged(t *testing.T) {
	ds := NewMockSource("Simple", 1, NewMockValueResolver(1))
	n, expanded, err := plant(Source(ds), noHits)
	require.NoError(t, err)
	require.False(t, expanded)
	_, ok := valueOf(n)
	require.False(t, ok)
}

func TestPlantSourceWithHitCollapses(t *testing.T) {
	ds := NewMockSource("Simple", 1, NewMockValueResolver(1))
	resolver := func(sourceName string, identity any) (any, bool) {
		if sourceName == "Simple" && identity == 1 {
			return 42, true
		}
		return nil, false
	}
	n, _, err := plant(Source(ds), resolver)
	require.NoError(t, err)
	v, ok := valueOf(n)
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestPlantMapAppliesOnceChildResolves(t *testing.T) {
	ds := NewMockSource("Simple", 1, NewMockValueResolver(1))
	resolver := func(string, any) (any, bool) { return 10, true }
	n, _, err := plant(Map(func(x any) any { return x.(int) * 2 }, Source(ds)), resolver)
	require.NoError(t, err)
	v, ok := valueOf(n)
	require.True(t, ok)
	require.Equal(t, 20, v)
}

func TestPlantMapPropagatesPanicAsErrMapFailed(t *testing.T) {
	ds := NewMockSource("Simple", 1, NewMockValueResolver(1))
	resolver := func(string, any) (any, bool) { return 10, true }
	_, _, err := plant(Map(func(any) any { panic("boom") }, Source(ds)), resolver)
	require.ErrorIs(t, err, ErrMapFailed)
}

func TestPlantBindAppliesOnceChildResolvesAndReportsExpansion(t *testing.T) {
	ds := NewMockSource("Simple", 1, NewMockValueResolver(1))
	resolver := func(string, any) (any, bool) { return 5, true }
	n, expanded, err := plant(Bind(func(x any) Node { return Value(x.(int) + 1) }, Source(ds)), resolver)
	require.NoError(t, err)
	require.True(t, expanded)
	v, ok := valueOf(n)
	require.True(t, ok)
	require.Equal(t, 6, v)
}

func TestPlantBindPropagatesPanicAsErrBindFailed(t *testing.T) {
	_, _, err := plant(Bind(func(any) Node { panic("boom") }, Value(1)), noHits)
	require.ErrorIs(t, err, ErrBindFailed)
}

func TestPlantBindRejectsNilContinuation(t *testing.T) {
	n, _, err := plant(Bind(func(any) Node { return nil }, Value(1)), noHits)
	require.Nil(t, n)
	require.ErrorIs(t, err, ErrBindFailed)
}

func TestPlantProductCollapsesOnlyWhenAllChildrenResolve(t *testing.T) {
	hit := NewMockSource("Hit", 1, NewMockValueResolver(1))
	miss := NewMockSource("Miss", 1, NewMockValueResolver(1))
	resolver := func(sourceName string, identity any) (any, bool) {
		if sourceName == "Hit" {
			return "resolved", true
		}
		return nil, false
	}
	n, _, err := plant(Product(Source(hit), Source(miss)), resolver)
	require.NoError(t, err)
	_, isValue := valueOf(n)
	require.False(t, isValue, "product must stay deferred while any child is unresolved")

	pn := n.(*productNode)
	v, ok := valueOf(pn.children[0])
	require.True(t, ok)
	require.Equal(t, "resolved", v)
}

func TestPlantEmptyProductCollapsesToEmptySlice(t *testing.T) {
	n, expanded, err := plant(Product(), noHits)
	require.NoError(t, err)
	require.False(t, expanded)
	v, ok := valueOf(n)
	require.True(t, ok)
	require.Equal(t, []any{}, v)
}
