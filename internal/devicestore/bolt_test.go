package devicestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := OpenBolt(filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStoreRoundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "auth_token", "tok-123"))

	got, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	require.Equal(t, "tok-123", got)
}

func TestBoltStoreMissingKeyIsEmpty(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBoltStoreRemove(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Remove(ctx, "k"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Empty(t, got)

	// Removing an absent key is not an error.
	require.NoError(t, store.Remove(ctx, "k"))
}

func TestBoltStoreMultiRemove(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))
	require.NoError(t, store.Set(ctx, "c", "3"))
	require.NoError(t, store.MultiRemove(ctx, []string{"a", "b", "missing"}))

	for key, want := range map[string]string{"a": "", "b": "", "c": "3"} {
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.db")
	ctx := context.Background()

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "user_profile", `{"id":"u1"}`))
	require.NoError(t, store.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "user_profile")
	require.NoError(t, err)
	require.Equal(t, `{"id":"u1"}`, got)
}

func TestBoltStoreHonorsCancelledContext(t *testing.T) {
	store := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, store.Set(ctx, "k", "v"), context.Canceled)
	require.ErrorIs(t, store.Remove(ctx, "k"), context.Canceled)
}
