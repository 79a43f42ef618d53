// Package flow implements the OAuth2 authorization-code flow controller:
// URL generation on the way out, state verification, code exchange and
// session creation on the way back.
package flow

import (
	"context"
	"errors"
	"fmt"

	slogctx "github.com/veqryn/slog-context"

	"github.com/lucid-framework/auth-gateway/internal/provider"
	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/session"
	"github.com/lucid-framework/auth-gateway/internal/state"
)

type Controller struct {
	states   *state.Ledger
	sessions *session.Ledger
	provider provider.Provider

	clientID     string
	clientSecret string

	// allowUnverifiedState switches the callback to the forgiving policy:
	// a missing state no longer aborts the flow, the session is created
	// with LowAssurance set instead.
	allowUnverifiedState bool
}

type Option func(*Controller)

func WithUnverifiedStateAllowed() Option {
	return func(c *Controller) { c.allowUnverifiedState = true }
}

func NewController(
	states *state.Ledger,
	sessions *session.Ledger,
	prov provider.Provider,
	clientID, clientSecret string,
	opts ...Option,
) *Controller {
	c := &Controller{
		states:       states,
		sessions:     sessions,
		provider:     prov,
		clientID:     clientID,
		clientSecret: clientSecret,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type AuthURLResult struct {
	AuthURL string
	State   string
}

// GenerateAuthURL issues a state token bound to the requested site and
// builds the provider authorization URL.
func (c *Controller) GenerateAuthURL(ctx context.Context, siteID string) (AuthURLResult, error) {
	if c.clientID == "" {
		return AuthURLResult{}, fmt.Errorf("client ID is not configured: %w", serviceerr.ErrConfiguration)
	}

	stateToken, err := c.states.Issue(ctx, siteID)
	if err != nil {
		return AuthURLResult{}, fmt.Errorf("issuing state token: %w", err)
	}

	return AuthURLResult{
		AuthURL: c.provider.AuthorizeURL(stateToken, siteID),
		State:   stateToken,
	}, nil
}

// HandleCallback verifies the returned state, exchanges the code and
// creates the session record.
func (c *Controller) HandleCallback(ctx context.Context, code, stateToken string) (session.Record, error) {
	siteID, lowAssurance, err := c.verifyState(ctx, stateToken)
	if err != nil {
		return session.Record{}, err
	}

	if c.clientID == "" || c.clientSecret == "" {
		return session.Record{}, fmt.Errorf("client credentials are not configured: %w", serviceerr.ErrConfiguration)
	}

	accessToken, err := c.provider.ExchangeCode(ctx, code)
	if err != nil {
		return session.Record{}, fmt.Errorf("exchanging code: %w", err)
	}

	if accessToken == "" {
		return session.Record{}, fmt.Errorf("provider returned no credential: %w", serviceerr.ErrTokenExchange)
	}

	// Identity resolution is best effort: a session without an email is
	// still a valid session.
	var email string

	identity, err := c.provider.AuthorizedIdentity(ctx, accessToken)
	if err != nil {
		slogctx.Warn(ctx, "Failed to resolve authorized identity", "error", err)
	} else {
		email = identity.Email
	}

	if siteID != "" {
		allowed, err := c.provider.CheckSiteAccess(ctx, accessToken, siteID)
		if err != nil {
			// Fail open: a flaky listing call must not lock admins out.
			slogctx.Warn(ctx, "Failed to check site access", "error", err, "site_id", siteID)
		} else if !allowed {
			return session.Record{}, fmt.Errorf("site %s: %w", siteID, serviceerr.ErrUnauthorizedSiteAccess)
		}
	}

	rec, err := c.sessions.Create(ctx, accessToken, email, siteID, lowAssurance)
	if err != nil {
		return session.Record{}, fmt.Errorf("creating session: %w", err)
	}

	return rec, nil
}

func (c *Controller) verifyState(ctx context.Context, stateToken string) (siteID string, lowAssurance bool, _ error) {
	siteID, err := c.states.Consume(ctx, stateToken)
	if err == nil {
		return siteID, false, nil
	}

	if !c.allowUnverifiedState {
		if errors.Is(err, serviceerr.ErrStorageUnavailable) {
			return "", false, fmt.Errorf("verifying state: %w", err)
		}

		return "", false, fmt.Errorf("state token did not verify: %w", serviceerr.ErrInvalidState)
	}

	slogctx.Warn(ctx, "Proceeding with unverified state, session will be low assurance", "error", err)

	return "", true, nil
}
