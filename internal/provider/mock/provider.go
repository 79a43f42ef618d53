// Package mock provides an in-memory provider for tests.
package mock

import (
	"context"
	"net/url"

	"github.com/lucid-framework/auth-gateway/internal/provider"
)

type Provider struct {
	accessToken   string
	exchangeErr   error
	identity      provider.Identity
	identityErr   error
	siteAccess    bool
	siteAccessErr error

	// ExchangedCodes records every code handed to ExchangeCode.
	ExchangedCodes []string
}

var _ provider.Provider = (*Provider)(nil)

type Option func(*Provider)

func WithAccessToken(token string) Option {
	return func(p *Provider) { p.accessToken = token }
}

func WithExchangeError(err error) Option {
	return func(p *Provider) { p.exchangeErr = err }
}

func WithIdentity(identity provider.Identity) Option {
	return func(p *Provider) { p.identity = identity }
}

func WithIdentityError(err error) Option {
	return func(p *Provider) { p.identityErr = err }
}

func WithSiteAccess(allowed bool) Option {
	return func(p *Provider) { p.siteAccess = allowed }
}

func WithSiteAccessError(err error) Option {
	return func(p *Provider) { p.siteAccessErr = err }
}

func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		accessToken: "mock-access-token",
		identity:    provider.Identity{Email: "dev@example.com"},
		siteAccess:  true,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Provider) AuthorizeURL(state, siteID string) string {
	query := url.Values{"state": {state}}
	if siteID != "" {
		query.Set("site_id", siteID)
	}

	return "https://provider.example/oauth/authorize?" + query.Encode()
}

func (p *Provider) ExchangeCode(_ context.Context, code string) (string, error) {
	p.ExchangedCodes = append(p.ExchangedCodes, code)

	if p.exchangeErr != nil {
		return "", p.exchangeErr
	}

	return p.accessToken, nil
}

func (p *Provider) AuthorizedIdentity(_ context.Context, _ string) (provider.Identity, error) {
	if p.identityErr != nil {
		return provider.Identity{}, p.identityErr
	}

	return p.identity, nil
}

func (p *Provider) CheckSiteAccess(_ context.Context, _, _ string) (bool, error) {
	if p.siteAccessErr != nil {
		return false, p.siteAccessErr
	}

	return p.siteAccess, nil
}
