// Package memory implements the ephemeral in-process storage backend.
// It is the fallback when the durable store cannot be reached: records
// survive only within one instance, which the health endpoint surfaces
// through the backend type.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/storage"
)

type Store struct {
	// mu serialises GetDel so read+delete stay one logical step.
	mu    sync.Mutex
	cache *gocache.Cache
}

var _ storage.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	s.cache.Set(key, value, ttl)

	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := s.cache.Get(key)
	if !ok {
		return nil, serviceerr.ErrNotFound
	}

	return value.([]byte), nil
}

func (s *Store) GetDel(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(key)

	return value, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)

	return nil
}

func (s *Store) CountPrefix(_ context.Context, prefix string) (int64, error) {
	var total int64

	now := time.Now().UnixNano()
	for key, item := range s.cache.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		if item.Expiration > 0 && item.Expiration < now {
			continue
		}

		total++
	}

	return total, nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Type() string {
	return storage.TypeEphemeral
}

// Sweep drops expired entries eagerly. Reads already treat expired
// entries as absent; this only bounds memory between reads.
func (s *Store) Sweep() {
	s.cache.DeleteExpired()
}
