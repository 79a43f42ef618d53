// Package session implements the session ledger. A record holds the
// upstream credential server-side; the client only ever sees the opaque
// session ID.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/storage"
)

const (
	keyPrefix = "session:"

	// idBytes yields 64 hex characters on the wire.
	idBytes = 32

	DefaultTTL = 24 * time.Hour
)

// Record is the stored session. ExpiresAt is fixed at creation; there is
// no sliding expiration.
type Record struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"accessToken"`
	Email        string    `json:"email,omitempty"`
	SiteID       string    `json:"siteId,omitempty"`
	LowAssurance bool      `json:"lowAssurance,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthSession is the projection handed to request handlers.
type AuthSession struct {
	SessionID    string
	AccessToken  string
	Email        string
	SiteID       string
	LowAssurance bool
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

func (l *Ledger) Create(ctx context.Context, accessToken, email, siteID string, lowAssurance bool) (Record, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return Record{}, fmt.Errorf("reading random bytes: %w", err)
	}

	now := l.now()
	rec := Record{
		ID:           hex.EncodeToString(buf),
		AccessToken:  accessToken,
		Email:        email,
		SiteID:       siteID,
		LowAssurance: lowAssurance,
		CreatedAt:    now,
		ExpiresAt:    now.Add(l.ttl),
	}

	bytes, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encoding session record: %w", err)
	}

	if err := l.backend.Put(ctx, keyPrefix+rec.ID, bytes, l.ttl); err != nil {
		return Record{}, fmt.Errorf("persisting session record: %w", err)
	}

	return rec, nil
}

// Validate resolves a session ID to its auth view. An absent record
// reports serviceerr.ErrNotFound; a record past its expiry is deleted and
// reports serviceerr.ErrSessionExpired; backend failures pass through as
// serviceerr.ErrStorageUnavailable.
func (l *Ledger) Validate(ctx context.Context, id string) (AuthSession, error) {
	if id == "" {
		return AuthSession{}, serviceerr.ErrNotFound
	}

	bytes, err := l.backend.Get(ctx, keyPrefix+id)
	if err != nil {
		return AuthSession{}, fmt.Errorf("reading session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(bytes, &rec); err != nil {
		return AuthSession{}, fmt.Errorf("decoding session record: %w", err)
	}

	if l.now().After(rec.ExpiresAt) {
		if err := l.Revoke(ctx, id); err != nil && !errors.Is(err, serviceerr.ErrNotFound) {
			return AuthSession{}, fmt.Errorf("revoking expired session: %w", err)
		}

		return AuthSession{}, serviceerr.ErrSessionExpired
	}

	return AuthSession{
		SessionID:    rec.ID,
		AccessToken:  rec.AccessToken,
		Email:        rec.Email,
		SiteID:       rec.SiteID,
		LowAssurance: rec.LowAssurance,
	}, nil
}

// Revoke removes a session unconditionally. Revoking an absent session is
// not an error.
func (l *Ledger) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	if err := l.backend.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("deleting session record: %w", err)
	}

	return nil
}

// Count reports active sessions for health reporting.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	return l.backend.CountPrefix(ctx, keyPrefix)
}
