// Package valkeystore implements the durable storage backend on Valkey.
package valkeystore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/storage"
)

type Store struct {
	valkey valkey.Client
	prefix string
}

var _ storage.Backend = (*Store)(nil)

func New(valkeyClient valkey.Client, prefix string) *Store {
	prefix = strings.TrimSuffix(prefix, ":")
	return &Store{
		valkey: valkeyClient,
		prefix: prefix,
	}
}

func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	cmd := s.valkey.B().Set().Key(s.key(key)).Value(valkey.BinaryString(value)).ExSeconds(seconds).Build()
	if err := s.valkey.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing set command: %w: %w", serviceerr.ErrStorageUnavailable, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	bytes, err := s.valkey.Do(ctx, s.valkey.B().Get().Key(s.key(key)).Build()).AsBytes()
	if err != nil {
		return nil, s.readErr("get", err)
	}

	return bytes, nil
}

func (s *Store) GetDel(ctx context.Context, key string) ([]byte, error) {
	bytes, err := s.valkey.Do(ctx, s.valkey.B().Getdel().Key(s.key(key)).Build()).AsBytes()
	if err != nil {
		return nil, s.readErr("getdel", err)
	}

	return bytes, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(s.key(key)).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w: %w", serviceerr.ErrStorageUnavailable, err)
	}

	return nil
}

func (s *Store) CountPrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		cursor uint64
		total  int64
	)

	for {
		scan, err := s.valkey.Do(ctx, s.valkey.B().Scan().Cursor(cursor).Match(s.key(prefix)+"*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return 0, fmt.Errorf("executing scan command: %w: %w", serviceerr.ErrStorageUnavailable, err)
		}

		cursor = scan.Cursor
		total += int64(len(scan.Elements))

		if cursor == 0 {
			return total, nil
		}
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.valkey.Do(ctx, s.valkey.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("executing ping command: %w: %w", serviceerr.ErrStorageUnavailable, err)
	}

	return nil
}

func (s *Store) Type() string {
	return storage.TypeDurable
}

func (s *Store) key(key string) string {
	if s.prefix == "" {
		return key
	}

	return s.prefix + ":" + key
}

func (s *Store) readErr(cmd string, err error) error {
	valkeyErr, ok := valkey.IsValkeyErr(err)
	if ok && valkeyErr.IsNil() {
		return serviceerr.ErrNotFound
	}

	return fmt.Errorf("executing %s command: %w: %w", cmd, serviceerr.ErrStorageUnavailable, err)
}
