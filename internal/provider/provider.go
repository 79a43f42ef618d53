// Package provider defines the OAuth2 provider contract the flow
// controller works against.
package provider

import "context"

// Identity describes the authorizing user as reported by the provider.
type Identity struct {
	Email string
}

type Provider interface {
	// AuthorizeURL builds the provider authorization URL carrying the
	// given state token.
	AuthorizeURL(state, siteID string) string

	// ExchangeCode redeems an authorization code for an access token.
	ExchangeCode(ctx context.Context, code string) (string, error)

	// AuthorizedIdentity resolves the user the access token was issued to.
	AuthorizedIdentity(ctx context.Context, accessToken string) (Identity, error)

	// CheckSiteAccess reports whether the access token is authorized for
	// the given site.
	CheckSiteAccess(ctx context.Context, accessToken, siteID string) (bool, error)
}
