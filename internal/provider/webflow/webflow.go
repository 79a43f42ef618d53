// Package webflow implements the provider contract against the Webflow
// OAuth2 and REST APIs.
package webflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/lucid-framework/auth-gateway/internal/provider"
	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
)

const (
	authURL  = "https://webflow.com/oauth/authorize"
	tokenURL = "https://api.webflow.com/oauth/access_token"
	apiBase  = "https://api.webflow.com/v2"

	defaultTimeout = 10 * time.Second
)

// Scopes is the fixed scope set requested on every authorization.
var Scopes = []string{
	"sites:read",
	"sites:write",
	"pages:read",
	"pages:write",
	"custom_code:read",
	"custom_code:write",
}

type Client struct {
	oauth      oauth2.Config
	httpClient *http.Client
	apiBase    string
}

var _ provider.Provider = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the REST client, used by tests to point at a
// local server.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithAPIBase replaces the REST base URL, used by tests.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = base }
}

// WithEndpoint replaces the OAuth2 endpoint, used by tests.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(c *Client) { c.oauth.Endpoint = endpoint }
}

func New(clientID, clientSecret, redirectURI string, opts ...Option) *Client {
	c := &Client{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiBase:    apiBase,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) AuthorizeURL(state, siteID string) string {
	if siteID == "" {
		return c.oauth.AuthCodeURL(state)
	}

	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("site_id", siteID))
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w: %w", serviceerr.ErrTokenExchange, err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response: %w", serviceerr.ErrTokenExchange)
	}

	return token.AccessToken, nil
}

func (c *Client) AuthorizedIdentity(ctx context.Context, accessToken string) (provider.Identity, error) {
	var authorizedBy struct {
		Email string `json:"email"`
	}

	if err := c.getJSON(ctx, accessToken, "/token/authorized_by", &authorizedBy); err != nil {
		return provider.Identity{}, fmt.Errorf("resolving authorized identity: %w", err)
	}

	return provider.Identity{Email: authorizedBy.Email}, nil
}

func (c *Client) CheckSiteAccess(ctx context.Context, accessToken, siteID string) (bool, error) {
	var siteList struct {
		Sites []struct {
			ID string `json:"id"`
		} `json:"sites"`
	}

	if err := c.getJSON(ctx, accessToken, "/sites", &siteList); err != nil {
		return false, fmt.Errorf("listing authorized sites: %w", err)
	}

	for _, site := range siteList.Sites {
		if site.ID == siteID {
			return true, nil
		}
	}

	return false, nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	return nil
}
