package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/storage"
	"github.com/lucid-framework/auth-gateway/internal/storage/memory"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Type is ephemeral", func(t *testing.T) {
		assert.Equal(t, storage.TypeEphemeral, memory.New().Type())
	})

	t.Run("Ping always succeeds", func(t *testing.T) {
		assert.NoError(t, memory.New().Ping(ctx))
	})

	t.Run("Put then Get round-trips", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))

		value, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), value)
	})

	t.Run("Get of missing key reports ErrNotFound", func(t *testing.T) {
		_, err := memory.New().Get(ctx, "missing")
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
	})

	t.Run("expired value is absent on read", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Millisecond))

		time.Sleep(5 * time.Millisecond)

		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
	})

	t.Run("GetDel consumes the value", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))

		value, err := store.GetDel(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), value)

		_, err = store.GetDel(ctx, "k")
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))
		require.NoError(t, store.Delete(ctx, "k"))
		require.NoError(t, store.Delete(ctx, "k"))
	})

	t.Run("CountPrefix skips expired and foreign keys", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(ctx, "state:a", []byte("1"), time.Minute))
		require.NoError(t, store.Put(ctx, "state:b", []byte("2"), time.Millisecond))
		require.NoError(t, store.Put(ctx, "session:c", []byte("3"), time.Minute))

		time.Sleep(5 * time.Millisecond)

		count, err := store.CountPrefix(ctx, "state:")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("Sweep drops expired entries", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Millisecond))

		time.Sleep(5 * time.Millisecond)
		store.Sweep()

		count, err := store.CountPrefix(ctx, "")
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
