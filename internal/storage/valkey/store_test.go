package valkeystore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucid-framework/auth-gateway/internal/dbtest/valkeytest"
	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/storage"
	valkeystore "github.com/lucid-framework/auth-gateway/internal/storage/valkey"
)

func TestStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	client := valkeytest.Start(t)

	store := valkeystore.New(client, "gateway-test")

	t.Run("Type is durable", func(t *testing.T) {
		assert.Equal(t, storage.TypeDurable, store.Type())
	})

	t.Run("Ping succeeds", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("Put then Get round-trips", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "roundtrip", []byte(`{"a":1}`), time.Minute))

		value, err := store.Get(ctx, "roundtrip")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), value)
	})

	t.Run("Get of missing key reports ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "no-such-key")
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
	})

	t.Run("GetDel consumes the value", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "consume-me", []byte("once"), time.Minute))

		value, err := store.GetDel(ctx, "consume-me")
		require.NoError(t, err)
		assert.Equal(t, []byte("once"), value)

		_, err = store.GetDel(ctx, "consume-me")
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "doomed", []byte("x"), time.Minute))
		require.NoError(t, store.Delete(ctx, "doomed"))
		require.NoError(t, store.Delete(ctx, "doomed"))

		_, err := store.Get(ctx, "doomed")
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
	})

	t.Run("TTL expires values", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "short-lived", []byte("x"), time.Second))

		time.Sleep(1500 * time.Millisecond)

		_, err := store.Get(ctx, "short-lived")
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
	})

	t.Run("CountPrefix counts only matching keys", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "count:a", []byte("1"), time.Minute))
		require.NoError(t, store.Put(ctx, "count:b", []byte("2"), time.Minute))
		require.NoError(t, store.Put(ctx, "other:c", []byte("3"), time.Minute))

		count, err := store.CountPrefix(ctx, "count:")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})
}
