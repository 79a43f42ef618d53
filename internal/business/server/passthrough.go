package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/lucid-framework/auth-gateway/internal/middleware/authctx"
)

// newPassthroughHandler proxies everything outside the auth surface to
// the fronted site. Without a configured upstream it serves an
// auth-context echo so the gateway remains testable standalone.
func newPassthroughHandler(upstreamURL string) (http.Handler, error) {
	if upstreamURL == "" {
		return http.HandlerFunc(echoAuthContext), nil
	}

	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slogctx.Error(r.Context(), "Upstream request failed", "error", err, "path", r.URL.Path)
		w.WriteHeader(http.StatusBadGateway)
	}

	return proxy, nil
}

func echoAuthContext(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"path":          r.URL.Path,
		"authenticated": false,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}

	if authSession, ok := authctx.FromContext(r.Context()); ok {
		body["authenticated"] = true
		body["email"] = authSession.Email
		body["siteId"] = authSession.SiteID
		body["lowAssurance"] = authSession.LowAssurance
	}

	writeJSON(w, http.StatusOK, body)
}
