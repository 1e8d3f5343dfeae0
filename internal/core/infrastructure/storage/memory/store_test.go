package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memoryconfig "github.com/weisyn/newsanchor/internal/config/storage/memory"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	store, err := New(memoryconfig.NewFromOptions(&memoryconfig.MemoryOptions{
		DefaultTTL:         ttl,
		CleanWindow:        time.Second,
		MaxEntriesInWindow: 16,
		MaxEntrySize:       64,
	}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, time.Minute)

	t.Run("读写删除", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "identity:alice")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Set(ctx, "identity:alice", []byte(`{"display":"Alice"}`)))
		v, ok, err := store.Get(ctx, "identity:alice")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"display":"Alice"}`, string(v))
		assert.Equal(t, 1, store.Len())

		require.NoError(t, store.Delete(ctx, "identity:alice"))
		require.NoError(t, store.Delete(ctx, "identity:missing"))
		_, ok, _ = store.Get(ctx, "identity:alice")
		assert.False(t, ok)
	})

	t.Run("关闭后静默", func(t *testing.T) {
		s := newTestStore(t, time.Minute)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		require.NoError(t, s.Set(ctx, "k", []byte("v")))
		_, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
