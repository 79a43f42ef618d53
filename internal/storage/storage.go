// Package storage abstracts the key/value store the gateway keeps its
// state and session records in. All values carry a TTL; the store is the
// only expiry authority the gateway relies on.
package storage

import (
	"context"
	"time"
)

// Backend types reported on the health endpoint.
const (
	TypeDurable   = "durable"
	TypeEphemeral = "ephemeral"
)

// Backend is the minimal KV contract the ledgers build on. GetDel reads
// and deletes in one logical step; it is the primitive that makes state
// token consumption at-most-once.
//
// Get and GetDel report serviceerr.ErrNotFound for absent keys and wrap
// serviceerr.ErrStorageUnavailable for transport failures, so callers can
// tell "no value" from "can't check".
type Backend interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	GetDel(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	CountPrefix(ctx context.Context, prefix string) (int64, error)
	Ping(ctx context.Context) error
	Type() string
}
