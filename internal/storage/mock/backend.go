// Package mock provides an in-memory storage backend with injectable
// failures for tests.
package mock

import (
	"context"
	"time"

	"github.com/lucid-framework/auth-gateway/internal/storage"
	"github.com/lucid-framework/auth-gateway/internal/storage/memory"
)

type Backend struct {
	inner *memory.Store

	putErr    error
	getErr    error
	getDelErr error
	deleteErr error
	countErr  error
	pingErr   error
}

var _ storage.Backend = (*Backend)(nil)

type Option func(*Backend)

func WithPutError(err error) Option    { return func(b *Backend) { b.putErr = err } }
func WithGetError(err error) Option    { return func(b *Backend) { b.getErr = err } }
func WithGetDelError(err error) Option { return func(b *Backend) { b.getDelErr = err } }
func WithDeleteError(err error) Option { return func(b *Backend) { b.deleteErr = err } }
func WithCountError(err error) Option  { return func(b *Backend) { b.countErr = err } }
func WithPingError(err error) Option   { return func(b *Backend) { b.pingErr = err } }

func NewBackend(opts ...Option) *Backend {
	b := &Backend{inner: memory.New()}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Backend) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if b.putErr != nil {
		return b.putErr
	}

	return b.inner.Put(ctx, key, value, ttl)
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}

	return b.inner.Get(ctx, key)
}

func (b *Backend) GetDel(ctx context.Context, key string) ([]byte, error) {
	if b.getDelErr != nil {
		return nil, b.getDelErr
	}

	return b.inner.GetDel(ctx, key)
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}

	return b.inner.Delete(ctx, key)
}

func (b *Backend) CountPrefix(ctx context.Context, prefix string) (int64, error) {
	if b.countErr != nil {
		return 0, b.countErr
	}

	return b.inner.CountPrefix(ctx, prefix)
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.pingErr
}

func (b *Backend) Type() string {
	return b.inner.Type()
}
