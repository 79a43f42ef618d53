package webflow_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/lucid-framework/auth-gateway/internal/provider/webflow"
	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
)

func TestAuthorizeURL(t *testing.T) {
	client := webflow.New("client-id", "client-secret", "https://example.com/lucid/auth/callback")

	raw := client.AuthorizeURL("state-token", "site-1")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "webflow.com", parsed.Host)
	assert.Equal(t, "/oauth/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "state-token", query.Get("state"))
	assert.Equal(t, "site-1", query.Get("site_id"))
	assert.Equal(t, "https://example.com/lucid/auth/callback", query.Get("redirect_uri"))
	assert.Contains(t, query.Get("scope"), "sites:read")
	assert.Contains(t, query.Get("scope"), "custom_code:write")

	raw = client.AuthorizeURL("state-token", "")
	parsed, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, parsed.Query().Get("site_id"))
}

func TestExchangeCode(t *testing.T) {
	t.Run("returns the access token", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "the-code", r.Form.Get("code"))
			assert.Equal(t, "client-id", r.Form.Get("client_id"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"granted-token","token_type":"Bearer"}`))
		}))
		defer tokenServer.Close()

		client := webflow.New("client-id", "client-secret", "https://example.com/lucid/auth/callback",
			webflow.WithEndpoint(oauth2.Endpoint{
				AuthURL:   tokenServer.URL + "/authorize",
				TokenURL:  tokenServer.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			}),
		)

		token, err := client.ExchangeCode(context.Background(), "the-code")
		require.NoError(t, err)
		assert.Equal(t, "granted-token", token)
	})

	t.Run("provider rejection maps to ErrTokenExchange", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer tokenServer.Close()

		client := webflow.New("client-id", "client-secret", "https://example.com/lucid/auth/callback",
			webflow.WithEndpoint(oauth2.Endpoint{
				TokenURL:  tokenServer.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			}),
		)

		_, err := client.ExchangeCode(context.Background(), "bad-code")
		assert.ErrorIs(t, err, serviceerr.ErrTokenExchange)
	})
}

func TestAuthorizedIdentity(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/authorized_by", r.URL.Path)
		assert.Equal(t, "Bearer granted-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"dev@example.com"}`))
	}))
	defer apiServer.Close()

	client := webflow.New("client-id", "client-secret", "https://example.com/lucid/auth/callback",
		webflow.WithAPIBase(apiServer.URL),
	)

	identity, err := client.AuthorizedIdentity(context.Background(), "granted-token")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", identity.Email)
}

func TestCheckSiteAccess(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sites":[{"id":"site-1"},{"id":"site-2"}]}`))
	}))
	defer apiServer.Close()

	client := webflow.New("client-id", "client-secret", "https://example.com/lucid/auth/callback",
		webflow.WithAPIBase(apiServer.URL),
	)

	allowed, err := client.CheckSiteAccess(context.Background(), "granted-token", "site-2")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = client.CheckSiteAccess(context.Background(), "granted-token", "site-9")
	require.NoError(t, err)
	assert.False(t, allowed)
}
