// Package auth implements the route protection middleware. Every request
// is classified, its session resolved and attached to the context, then
// dispatched according to the protection level.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/lucid-framework/auth-gateway/internal/middleware/authctx"
	"github.com/lucid-framework/auth-gateway/internal/routes"
	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/session"
)

const (
	// AuthPath is where unauthenticated page requests are sent.
	AuthPath = "/lucid/auth"

	// AdminHome is the fallback target after a successful sign-in.
	AdminHome = "/lucid/admin"

	retryAfterSeconds = "30"

	maxLoggedUserAgent = 100
)

// SessionValidator resolves an opaque session ID to its auth view.
type SessionValidator interface {
	Validate(ctx context.Context, id string) (session.AuthSession, error)
}

type Middleware struct {
	sessions   SessionValidator
	classifier *routes.Classifier
	cookieName string
}

func NewMiddleware(sessions SessionValidator, classifier *routes.Classifier, cookieName string) *Middleware {
	return &Middleware{
		sessions:   sessions,
		classifier: classifier,
		cookieName: cookieName,
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		level := m.classifier.Classify(r.URL.Path)

		authSession, authenticated, err := m.resolveSession(ctx, r)
		if err != nil {
			// Failure asymmetry: a critical API must not answer with a
			// guess, everything else degrades to unauthenticated.
			if level == routes.CriticalAPI {
				writeServiceUnavailable(w)

				return
			}

			slogctx.Warn(ctx, "Session validation degraded to unauthenticated",
				"error", err, "path", r.URL.Path, "level", level.String())
		}

		if authenticated {
			ctx = authctx.WithSession(ctx, authSession)
			r = r.WithContext(ctx)
		}

		switch level {
		case routes.CriticalAPI:
			if !authenticated {
				logDenial(ctx, r, level)
				writeUnauthorized(w, r)

				return
			}
		case routes.ProtectedPage:
			if !authenticated {
				logDenial(ctx, r, level)
				http.Redirect(w, r, authRedirectTarget(r), http.StatusFound)

				return
			}
		case routes.AuthPage:
			// Callback, logout and the error display must stay reachable
			// for signed-in users; only the flow entry redirects away.
			if authenticated && isFlowEntry(r.URL.Path) {
				http.Redirect(w, r, returnTarget(r), http.StatusFound)

				return
			}
		case routes.PublicEnhanced:
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) resolveSession(ctx context.Context, r *http.Request) (session.AuthSession, bool, error) {
	id := ExtractSessionID(r, m.cookieName)
	if id == "" {
		return session.AuthSession{}, false, nil
	}

	authSession, err := m.sessions.Validate(ctx, id)
	switch {
	case err == nil:
		return authSession, true, nil
	case errors.Is(err, serviceerr.ErrNotFound), errors.Is(err, serviceerr.ErrSessionExpired):
		return session.AuthSession{}, false, nil
	default:
		return session.AuthSession{}, false, err
	}
}

// ExtractSessionID looks for the session ID in the Authorization header,
// the `session` query parameter, then the session cookie.
func ExtractSessionID(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			return token
		}
	}

	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}

	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}

// ValidReturnTarget reports whether a return target is safe to redirect
// to: a relative path with no scheme and no protocol-relative prefix.
func ValidReturnTarget(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") {
		return false
	}

	if strings.HasPrefix(target, "//") {
		return false
	}

	return !strings.Contains(target, "://")
}

func isFlowEntry(path string) bool {
	return path == AuthPath || path == AuthPath+"/"
}

func authRedirectTarget(r *http.Request) string {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	return AuthPath + "?return=" + url.QueryEscape(target)
}

func returnTarget(r *http.Request) string {
	if target := r.URL.Query().Get("return"); ValidReturnTarget(target) {
		return target
	}

	return AdminHome
}

func logDenial(ctx context.Context, r *http.Request, level routes.ProtectionLevel) {
	userAgent := r.UserAgent()
	if len(userAgent) > maxLoggedUserAgent {
		userAgent = userAgent[:maxLoggedUserAgent]
	}

	slogctx.Warn(ctx, "Denied unauthenticated request",
		"path", r.URL.Path,
		"method", r.Method,
		"level", level.String(),
		"user_agent", userAgent,
	)
}

type unauthorizedBody struct {
	Error       string `json:"error"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	RedirectURL string `json:"redirectUrl"`
	Timestamp   string `json:"timestamp"`
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="lucid"`)
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(unauthorizedBody{
		Error:       "Authentication required",
		Code:        "UNAUTHORIZED",
		Message:     "A valid session is required to access this resource.",
		RedirectURL: authRedirectTarget(r),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeServiceUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", retryAfterSeconds)
	w.WriteHeader(http.StatusServiceUnavailable)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":     "Authentication service unavailable",
		"code":      "SERVICE_UNAVAILABLE",
		"message":   "Session validation is temporarily unavailable. Retry shortly.",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
