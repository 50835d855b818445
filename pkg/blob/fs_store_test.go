package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreGetMissingKey(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	obj, err := store.Get(context.Background(), "absent")
	assert.Nil(t, obj)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStorePutGetRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "col-1", []byte("snapshot v1"), 1))

	obj, err := store.Get(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot v1"), obj.Data)
	assert.Equal(t, int64(1), obj.Version)

	require.NoError(t, store.Put(ctx, "col-1", []byte("snapshot v2"), 2))

	obj, err = store.Get(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot v2"), obj.Data)
	assert.Equal(t, int64(2), obj.Version)
}

func TestFSStorePutRequiresStrictlyGreaterVersion(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "col-1", []byte("base"), 3))

	// Same version loses: two writers racing from the same base cannot
	// both land.
	err = store.Put(ctx, "col-1", []byte("racer"), 3)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	// Older version loses too.
	err = store.Put(ctx, "col-1", []byte("stale"), 2)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	// The stored object is untouched by failed puts.
	obj, err := store.Get(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("base"), obj.Data)
	assert.Equal(t, int64(3), obj.Version)
}

func TestFSStoreDelete(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "col-1", []byte("data"), 1))
	require.NoError(t, store.Delete(ctx, "col-1"))

	_, err = store.Get(ctx, "col-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "col-1"))

	// After delete the version gate resets, so version 1 is accepted again.
	assert.NoError(t, store.Put(ctx, "col-1", []byte("fresh"), 1))
}

func TestFSStoreKeysAreIsolated(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "col-a", []byte("a"), 5))
	require.NoError(t, store.Put(ctx, "col-b", []byte("b"), 1))

	objA, err := store.Get(ctx, "col-a")
	require.NoError(t, err)
	objB, err := store.Get(ctx, "col-b")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), objA.Data)
	assert.Equal(t, []byte("b"), objB.Data)
}
