package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// Both implementations must satisfy the same contract.
func stores(t *testing.T) map[string]repo.Store {
	t.Helper()
	sqlStore, err := NewSQLStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })
	return map[string]repo.Store{
		"mem": NewMemStore(),
		"sql": sqlStore,
	}
}

func TestStoreSetGet(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, repo.ErrNotFound)

			require.NoError(t, store.Set(ctx, "k", "v1", 0))
			v, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v1", v)

			require.NoError(t, store.Set(ctx, "k", "v2", 0))
			v, err = store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v2", v)
		})
	}
}

func TestStoreTTL(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "k", "v", 20*time.Millisecond))
			_, err := store.Get(ctx, "k")
			require.NoError(t, err)

			time.Sleep(30 * time.Millisecond)
			_, err = store.Get(ctx, "k")
			assert.ErrorIs(t, err, repo.ErrNotFound, "expired key reads as absent")
		})
	}
}

func TestStoreSetNX(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := store.SetNX(ctx, "k", "first", 0)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = store.SetNX(ctx, "k", "second", 0)
			require.NoError(t, err)
			assert.False(t, ok)

			v, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "first", v)
		})
	}
}

func TestStoreSetNXClaimsExpired(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := store.SetNX(ctx, "k", "first", 20*time.Millisecond)
			require.NoError(t, err)
			require.True(t, ok)

			time.Sleep(30 * time.Millisecond)

			ok, err = store.SetNX(ctx, "k", "second", 0)
			require.NoError(t, err)
			assert.True(t, ok, "expired key counts as absent")
		})
	}
}

func TestStoreDeleteAndExists(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Delete(ctx, "missing"), "deleting absent key is fine")

			require.NoError(t, store.Set(ctx, "k", "v", 0))
			ok, err := store.Exists(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, store.Delete(ctx, "k"))
			ok, err = store.Exists(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreExpire(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := store.Expire(ctx, "missing", time.Minute)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "k", "v", 0))
			ok, err = store.Expire(ctx, "k", 20*time.Millisecond)
			require.NoError(t, err)
			assert.True(t, ok)

			time.Sleep(30 * time.Millisecond)
			_, err = store.Get(ctx, "k")
			assert.ErrorIs(t, err, repo.ErrNotFound)
		})
	}
}

func TestStoreIncr(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n, err := store.Incr(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			n, err = store.Incr(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
		})
	}
}

func TestStoreListOps(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n, err := store.LLen(ctx, "list")
			require.NoError(t, err)
			assert.Zero(t, n)

			require.NoError(t, store.RPush(ctx, "list", "a", "b"))
			require.NoError(t, store.RPush(ctx, "list", "c"))

			items, err := store.LRange(ctx, "list", 0, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, items)

			items, err = store.LRange(ctx, "list", 1, 1)
			require.NoError(t, err)
			assert.Equal(t, []string{"b"}, items)

			require.NoError(t, store.LSet(ctx, "list", 1, "B"))
			items, err = store.LRange(ctx, "list", 0, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "B", "c"}, items)

			require.NoError(t, store.LRem(ctx, "list", "B"))
			items, err = store.LRange(ctx, "list", 0, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c"}, items)
		})
	}
}

func TestStoreLSetOutOfRange(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.RPush(ctx, "list", "a"))
			assert.Error(t, store.LSet(ctx, "list", 5, "x"))
		})
	}
}

func TestStoreDrain(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			items, err := store.Drain(ctx, "list")
			require.NoError(t, err)
			assert.Empty(t, items)

			require.NoError(t, store.RPush(ctx, "list", "a", "b", "c"))
			items, err = store.Drain(ctx, "list")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, items)

			n, err := store.LLen(ctx, "list")
			require.NoError(t, err)
			assert.Zero(t, n, "drain removes the list")
		})
	}
}

func TestStoreListTTL(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.RPush(ctx, "list", "a"))
			ok, err := store.Expire(ctx, "list", 20*time.Millisecond)
			require.NoError(t, err)
			require.True(t, ok)

			time.Sleep(30 * time.Millisecond)
			n, err := store.LLen(ctx, "list")
			require.NoError(t, err)
			assert.Zero(t, n, "expired list reads as empty")
		})
	}
}

func TestSQLStorePurgeExpired(t *testing.T) {
	store, err := NewSQLStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "gone", "v", 10*time.Millisecond))
	require.NoError(t, store.Set(ctx, "kept", "v", time.Hour))
	require.NoError(t, store.RPush(ctx, "list", "a"))
	ok, err := store.Expire(ctx, "list", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(2))

	_, err = store.Get(ctx, "kept")
	assert.NoError(t, err)
}

func TestSQLStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	ctx := context.Background()

	store, err := NewSQLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", "v", 0))
	require.NoError(t, store.Close())

	reopened, err := NewSQLStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
