// Package state implements the CSRF state ledger for the authorization
// flow. A state token is issued before redirecting to the provider and
// consumed exactly once when the callback returns.
package state

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/storage"
)

const (
	keyPrefix = "state:"

	// tokenBytes yields 32 hex characters on the wire.
	tokenBytes = 16

	DefaultTTL = 15 * time.Minute
)

type record struct {
	BoundContext string    `json:"boundContext,omitempty"`
	IssuedAt     time.Time `json:"issuedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type Ledger struct {
	backend storage.Backend
	ttl     time.Duration
	now     func() time.Time
}

func NewLedger(backend storage.Backend, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Ledger{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue mints a state token bound to the given context (typically a site
// ID). A persist failure is logged but not propagated: authorization URL
// generation must never block on storage, it only costs the strict
// verification on the way back.
func (l *Ledger) Issue(ctx context.Context, boundContext string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	token := hex.EncodeToString(buf)

	now := l.now()
	bytes, err := json.Marshal(record{
		BoundContext: boundContext,
		IssuedAt:     now,
		ExpiresAt:    now.Add(l.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("encoding state record: %w", err)
	}

	if err := l.backend.Put(ctx, keyPrefix+token, bytes, l.ttl); err != nil {
		slogctx.Warn(ctx, "Failed to persist state token, callback verification will not match it",
			"error", err)
	}

	return token, nil
}

// Consume validates and burns a state token, returning the context it was
// bound to. Read and delete are one logical step, so a replayed token
// always reports serviceerr.ErrNotFound. Malformed tokens never touch
// storage.
func (l *Ledger) Consume(ctx context.Context, token string) (string, error) {
	if !validToken(token) {
		return "", serviceerr.ErrNotFound
	}

	bytes, err := l.backend.GetDel(ctx, keyPrefix+token)
	if err != nil {
		return "", fmt.Errorf("consuming state token: %w", err)
	}

	var rec record
	if err := json.Unmarshal(bytes, &rec); err != nil {
		return "", fmt.Errorf("decoding state record: %w", err)
	}

	// The backend TTL normally handles expiry; this covers records read
	// back in the window between logical and physical expiration.
	if l.now().After(rec.ExpiresAt) {
		return "", serviceerr.ErrNotFound
	}

	return rec.BoundContext, nil
}

// Count reports pending state tokens for health reporting.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	return l.backend.CountPrefix(ctx, keyPrefix)
}

func validToken(token string) bool {
	if len(token) != tokenBytes*2 {
		return false
	}

	_, err := hex.DecodeString(token)

	return err == nil
}
