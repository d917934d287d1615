package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrontierOfValueIsEmpty(t *testing.T) {
	require.Equal(t, 0, frontierSize(Value(1)))
}

func TestFrontierOfSourceIsOne(t *testing.T) {
	n := Source(NewMockSource("Simple", 1, NewMockValueResolver(1)))
	require.Equal(t, 1, frontierSize(n))
}

func TestFrontierDedupsByIdentityAcrossSiblings(t *testing.T) {
	ds := NewMockSource("Simple", 1, NewMockValueResolver(1))
	n := Product(Source(ds), Source(ds.Sharing(1)), Source(ds.Sharing(2)))
	require.Equal(t, 2, frontierSize(n))

	groups := analyzeFrontier(n)
	require.Len(t, groups, 1)
	require.Equal(t, 2, groups["Simple"].size())
}

func TestFrontierGroupsByDistinctSourceName(t *testing.T) {
	n := Product(
		Source(NewMockSource("A", 1, NewMockValueResolver(1))),
		Source(NewMockSource("B", 1, NewMockValueResolver(1))),
	)
	groups := analyzeFrontier(n)
	require.Len(t, groups, 2)
}

func TestFrontierDoesNotCrossUnresolvedBind(t *testing.T) {
	n := Bind(func(any) Node {
		return Source(NewMockSource("Hidden", 1, NewMockValueResolver(1)))
	}, Source(NewMockSource("Visible", 1, NewMockValueResolver(1))))

	groups := analyzeFrontier(n)
	require.Len(t, groups, 1)
	_, ok := groups["Hidden"]
	require.False(t, ok, "a Bind's continuation must not appear in the frontier before its child resolves")
	_, ok = groups["Visible"]
	require.True(t, ok)
}

func TestFrontierOfMapRecursesIntoChild(t *testing.T) {
	n := Map(func(x any) any { return x }, Source(NewMockSource("Simple", 1, NewMockValueResolver(1))))
	require.Equal(t, 1, frontierSize(n))
}

func TestFrontierOfEmptyProductIsZero(t *testing.T) {
	require.Equal(t, 0, frontierSize(Product()))
}
