package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/lucid-framework/auth-gateway/internal/config"
	"github.com/lucid-framework/auth-gateway/internal/flow"
	"github.com/lucid-framework/auth-gateway/internal/middleware/auth"
	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
	"github.com/lucid-framework/auth-gateway/internal/session"
	"github.com/lucid-framework/auth-gateway/internal/state"
	"github.com/lucid-framework/auth-gateway/internal/storage"
)

const errorPath = "/lucid/auth/error"

// gatewayServer implements the auth flow endpoints and the health check.
type gatewayServer struct {
	flow     *flow.Controller
	sessions *session.Ledger
	states   *state.Ledger
	backend  storage.Backend
	cookie   config.CookieTemplate
}

func newGatewayServer(
	flowController *flow.Controller,
	sessions *session.Ledger,
	states *state.Ledger,
	backend storage.Backend,
	cookie config.CookieTemplate,
) *gatewayServer {
	return &gatewayServer{
		flow:     flowController,
		sessions: sessions,
		states:   states,
		backend:  backend,
		cookie:   cookie,
	}
}

// handleAuth starts the authorization flow: a redirect to the provider,
// or a JSON body for XHR callers.
func (s *gatewayServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slogctx.Debug(ctx, "handleAuth() called")
	defer slogctx.Debug(ctx, "handleAuth() completed")

	result, err := s.flow.GenerateAuthURL(ctx, r.URL.Query().Get("site_id"))
	if err != nil {
		slogctx.Error(ctx, "Failed to generate authorization URL", "error", err)

		if prefersJSON(r) {
			writeError(w, err)

			return
		}

		s.redirectToErrorDisplay(w, r, err)

		return
	}

	if prefersJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{
			"authUrl": result.AuthURL,
			"state":   result.State,
		})

		return
	}

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// handleCallback completes the flow: verifies the state, exchanges the
// code, sets the session cookie and sends the user into the admin UI.
func (s *gatewayServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slogctx.Debug(ctx, "handleCallback() called")
	defer slogctx.Debug(ctx, "handleCallback() completed")

	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		slogctx.Warn(ctx, "Provider returned an authorization error", "provider_error", providerErr)
		http.Redirect(w, r, errorPath+"?error="+url.QueryEscape(providerErr), http.StatusFound)

		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, &serviceerr.Error{Err: serviceerr.CodeInvalidRequest, Description: "missing authorization code"})

		return
	}

	rec, err := s.flow.HandleCallback(ctx, code, query.Get("state"))
	if err != nil {
		slogctx.Error(ctx, "Authorization callback failed", "error", err)
		s.redirectToErrorDisplay(w, r, err)

		return
	}

	http.SetCookie(w, s.cookie.ToCookie(rec.ID))

	target := "/lucid/"
	if rec.SiteID != "" {
		target = "/lucid/?site=" + url.QueryEscape(rec.SiteID)
	}

	slogctx.Debug(ctx, "Redirecting user", "to", target)
	http.Redirect(w, r, target, http.StatusFound)
}

// handleLogout revokes the session and clears the cookie.
func (s *gatewayServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slogctx.Debug(ctx, "handleLogout() called")
	defer slogctx.Debug(ctx, "handleLogout() completed")

	if id := auth.ExtractSessionID(r, s.cookie.Name); id != "" {
		if err := s.sessions.Revoke(ctx, id); err != nil {
			// Logout still clears the cookie; the record expires by TTL.
			slogctx.Warn(ctx, "Failed to revoke session", "error", err)
		}
	}

	http.SetCookie(w, s.cookie.ToExpiredCookie())
	http.Redirect(w, r, auth.AuthPath, http.StatusFound)
}

// handleErrorDisplay maps an authorization error code to a readable
// message.
func (s *gatewayServer) handleErrorDisplay(w http.ResponseWriter, r *http.Request) {
	code := serviceerr.Code(r.URL.Query().Get("error"))
	if code == "" {
		code = serviceerr.CodeUnknown
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"error":             string(code),
		"message":           serviceerr.Message(code),
		"securitySensitive": serviceerr.SecuritySensitive(code),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealth reports the storage backend and best-effort ledger counts.
func (s *gatewayServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	healthStatus := "ok"
	if err := s.backend.Ping(ctx); err != nil {
		slogctx.Warn(ctx, "Storage ping failed", "error", err)

		healthStatus = "degraded"
	}

	activeSessions := int64(-1)
	if count, err := s.sessions.Count(ctx); err == nil {
		activeSessions = count
	}

	pendingStates := int64(-1)
	if count, err := s.states.Count(ctx); err == nil {
		pendingStates = count
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         healthStatus,
		"storageType":    s.backend.Type(),
		"activeSessions": activeSessions,
		"pendingStates":  pendingStates,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *gatewayServer) redirectToErrorDisplay(w http.ResponseWriter, r *http.Request, err error) {
	http.Redirect(w, r, errorPath+"?error="+string(displayCode(err)), http.StatusFound)
}

// displayCode picks the error-display code for a flow failure.
func displayCode(err error) serviceerr.Code {
	switch {
	case errors.Is(err, serviceerr.ErrInvalidState):
		return serviceerr.CodeInvalidState
	case errors.Is(err, serviceerr.ErrUnauthorizedSiteAccess):
		return serviceerr.CodeUnauthorizedSiteAccess
	case errors.Is(err, serviceerr.ErrSessionExpired):
		return serviceerr.CodeSessionExpired
	case errors.Is(err, serviceerr.ErrStorageUnavailable):
		return serviceerr.CodeTemporarilyUnavailable
	default:
		return serviceerr.CodeServerError
	}
}

func prefersJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}

	// Accept can carry a list ("application/json, */*"); a JSON entry
	// anywhere in it is enough.
	accept := r.Header.Get("Accept")

	return strings.Contains(accept, "application/json") || strings.Contains(accept, "text/json")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	var serviceErr *serviceerr.Error
	if !errors.As(err, &serviceErr) {
		serviceErr = serviceerr.ErrUnknown
	}

	writeJSON(w, serviceErr.HTTPStatus(), map[string]string{
		"error":             string(serviceErr.Err),
		"error_description": serviceErr.Description,
	})
}
