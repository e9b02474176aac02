package dotted

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCache(t *testing.T) {
	t.Parallel()
	cache := NewSnapshotCache(2)
	_, ok := cache.Lookup("missing")
	assert.False(t, ok)
	assert.Error(t, cache.Precompile("k", nil))

	tree := New()
	require.NoError(t, tree.Set("a.b", 1))
	s, err := NewSnapshot("prefs", "k", tree, time.Now())
	require.NoError(t, err)
	require.NoError(t, cache.Precompile("k", s))

	got, ok := cache.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, s.Hash, got.Hash)
	require.NoError(t, got.Data.Set("a.b", 2))
	again, ok := cache.Lookup("k")
	require.True(t, ok)
	assert.NoError(t, again.Verify(), "lookups hand out copies")

	cache.Invalidate("k")
	_, ok = cache.Lookup("k")
	assert.False(t, ok)
}

func TestSnapshotCacheRejectsTampered(t *testing.T) {
	t.Parallel()
	cache := NewSnapshotCache(2)
	s, err := NewSnapshot("prefs", "k", New(), time.Now())
	require.NoError(t, err)
	s.Hash = "not-the-hash"
	assert.ErrorIs(t, cache.Precompile("k", s), ErrHashMismatch)
	_, ok := cache.Lookup("k")
	assert.False(t, ok)
}

func TestSnapshotCacheEvicts(t *testing.T) {
	t.Parallel()
	cache := NewSnapshotCache(1)
	for _, key := range []string{"one", "two"} {
		s, err := NewSnapshot(key, key, New(), time.Now())
		require.NoError(t, err)
		require.NoError(t, cache.Precompile(key, s))
	}
	_, ok := cache.Lookup("one")
	assert.False(t, ok)
	_, ok = cache.Lookup("two")
	assert.True(t, ok)
}
