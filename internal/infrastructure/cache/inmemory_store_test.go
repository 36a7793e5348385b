package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_GetSetRemove(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	data, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), data)

	require.NoError(t, store.Set(ctx, "k", []byte("v2")))
	data, _, _ = store.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), data)

	require.NoError(t, store.Remove(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is a no-op
	require.NoError(t, store.Remove(ctx, "k"))
	assert.Equal(t, 0, store.Len())
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	original := []byte("value")
	require.NoError(t, store.Set(ctx, "k", original))
	original[0] = 'X'

	data, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("value"), data)

	data[0] = 'Y'
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("value"), again)
}
