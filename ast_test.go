package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueRoundTrips(t *testing.T) {
	v, ok := valueOf(Value(7))
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestValueOfRejectsNonValue(t *testing.T) {
	_, ok := valueOf(Source(NewMockSource("Simple", 1, NewMockValueResolver(1))))
	require.False(t, ok)
}

func TestMapEagerlyCollapsesOverValue(t *testing.T) {
	n := Map(func(x any) any { return x.(int) + 1 }, Value(1))
	v, ok := valueOf(n)
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestMapDefersOverSource(t *testing.T) {
	n := Map(func(x any) any { return x }, Source(NewMockSource("Simple", 1, NewMockValueResolver(1))))
	_, ok := valueOf(n)
	require.False(t, ok, "mapping over an unresolved Source must stay deferred")
}

func TestBindNeverCollapsesEagerly(t *testing.T) {
	n := Bind(func(x any) Node { return Value(x) }, Value(1))
	_, ok := valueOf(n)
	require.False(t, ok, "Bind must defer its continuation to the runner even over an already-resolved child")
}

func TestProductCopiesInputSlice(t *testing.T) {
	children := []Node{Value(1), Value(2)}
	n := Product(children...)
	children[0] = Value(99)

	pn := n.(*productNode)
	v, ok := valueOf(pn.children[0])
	require.True(t, ok)
	require.Equal(t, 1, v, "Product must not alias the caller's slice")
}

func TestCollectIsProductOverSlice(t *testing.T) {
	n := Collect([]Node{Value(1), Value(2)})
	pn, ok := n.(*productNode)
	require.True(t, ok)
	require.Len(t, pn.children, 2)
}

func TestTraverseMapsOverResolvedSlice(t *testing.T) {
	n := Traverse(func(x any) Node {
		return Value(x.(int) * 10)
	}, Value([]any{1, 2, 3}))

	v, err := Run(context.Background(), n, Options{})
	require.NoError(t, err)
	require.Equal(t, []any{10, 20, 30}, v)
}
