package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheLookupMiss(t *testing.T) {
	c := NewCache()
	_, ok := c.Lookup("Simple", 1)
	require.False(t, ok)
}

func TestCacheInsertThenLookup(t *testing.T) {
	c := NewCache()
	c.Insert("Simple", 1, 42)
	v, ok := c.Lookup("Simple", 1)
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestCacheInsertFirstWriterWins(t *testing.T) {
	c := NewCache()
	c.Insert("Simple", 1, "first")
	c.Insert("Simple", 1, "second")
	v, _ := c.Lookup("Simple", 1)
	require.Equal(t, "first", v)
}

func TestSeedBuildsLookupableCache(t *testing.T) {
	c := Seed(map[string]map[any]any{"Simple": {1: 42}})
	v, ok := c.Lookup("Simple", 1)
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestSnapshotIsIndependentOfLiveCache(t *testing.T) {
	c := NewCache()
	c.Insert("Simple", 1, 42)
	snap := c.Snapshot()
	c.Insert("Simple", 2, 43)

	require.Len(t, snap["Simple"], 1)
	require.Equal(t, 2, c.Len())
}

func TestCacheLenCountsAcrossSourceNames(t *testing.T) {
	c := NewCache()
	c.Insert("Simple", 1, 1)
	c.Insert("Other", 1, 1)
	c.Insert("Other", 2, 1)
	require.Equal(t, 3, c.Len())
}
