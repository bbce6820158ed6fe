package kvstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/directory/pkg/kvstore"
)

func newStore(t *testing.T) *kvstore.MemoryStore {
	t.Helper()
	store := kvstore.NewMemoryStore()
	t.Cleanup(store.Stop)
	return store
}

func TestMemoryStore_SetGet(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "k", "v"))
	val, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", val)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetWithTTL(ctx, "k", "v", 20*time.Millisecond))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(40 * time.Millisecond)

	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "expired entry must read as a miss")
}

func TestMemoryStore_DeleteByPrefix(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "rs:Departments:aaa", "1"))
	require.NoError(t, store.Set(ctx, "rs:Departments:bbb", "2"))
	require.NoError(t, store.Set(ctx, "rs:Staff:ccc", "3"))

	require.NoError(t, store.DeleteByPrefix(ctx, "rs:Departments:"))

	_, found, _ := store.Get(ctx, "rs:Departments:aaa")
	assert.False(t, found)
	_, found, _ = store.Get(ctx, "rs:Departments:bbb")
	assert.False(t, found)
	_, found, _ = store.Get(ctx, "rs:Staff:ccc")
	assert.True(t, found)
}

func TestMemoryStore_IncrementSlidesWindow(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()

	n, err := store.Increment(ctx, "ctr", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Increment(ctx, "ctr", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	time.Sleep(80 * time.Millisecond)

	n, err = store.Increment(ctx, "ctr", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter must reset after the window elapses")
}
