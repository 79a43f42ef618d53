package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/samber/oops"

	slogctx "github.com/veqryn/slog-context"

	"github.com/lucid-framework/auth-gateway/internal/config"
	"github.com/lucid-framework/auth-gateway/internal/flow"
	"github.com/lucid-framework/auth-gateway/internal/middleware/auth"
	"github.com/lucid-framework/auth-gateway/internal/routes"
	"github.com/lucid-framework/auth-gateway/internal/session"
	"github.com/lucid-framework/auth-gateway/internal/state"
	"github.com/lucid-framework/auth-gateway/internal/storage"
)

// Dependencies carries the wired collaborators of the HTTP server.
type Dependencies struct {
	Flow       *flow.Controller
	Sessions   *session.Ledger
	States     *state.Ledger
	Backend    storage.Backend
	Classifier *routes.Classifier
}

func createHTTPServer(_ context.Context, cfg *config.Config, deps Dependencies) (*http.Server, error) {
	gateway := newGatewayServer(deps.Flow, deps.Sessions, deps.States, deps.Backend, cfg.Session.Cookie)

	passthrough, err := newPassthroughHandler(cfg.Upstream.URL)
	if err != nil {
		return nil, oops.In("HTTP Server").
			Wrapf(err, "parsing upstream URL")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /lucid/auth", gateway.handleAuth)
	mux.HandleFunc("GET /lucid/auth/{$}", gateway.handleAuth)
	mux.HandleFunc("GET /lucid/auth/callback", gateway.handleCallback)
	mux.HandleFunc("GET /lucid/auth/logout", gateway.handleLogout)
	mux.HandleFunc("GET /lucid/auth/error", gateway.handleErrorDisplay)
	mux.HandleFunc("GET /lucid/api/health", gateway.handleHealth)
	mux.Handle("/", passthrough)

	protection := auth.NewMiddleware(deps.Sessions, deps.Classifier, cfg.Session.Cookie.Name)

	handler := protection.Handler(mux)
	handler = newTraceMiddleware(cfg)(handler)

	return &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: handler,
	}, nil
}

// StartHTTPServer starts the gateway HTTP server using the given config.
func StartHTTPServer(ctx context.Context, cfg *config.Config, deps Dependencies) error {
	if err := initMeters(ctx, cfg); err != nil {
		return err
	}

	server, err := createHTTPServer(ctx, cfg, deps)
	if err != nil {
		return err
	}

	slogctx.Info(ctx, "Starting a listener", "address", server.Addr)

	// Parse network if the address if provided in the format of network://address.
	// Otherwise use tcp network by default. Some integration tests are easier to implement
	// by binding a listener to a unix socket rather than a TCP port,
	// since we don't need to look up for a free port or scan /proc/net on Linux or call sysctl on macOS
	// to discover which port the process is bound to.
	network := "tcp"
	if idx := strings.IndexRune(server.Addr, ':'); idx != -1 && len(server.Addr) > idx+3 && server.Addr[idx:idx+3] == "://" {
		network = server.Addr[:idx]
		server.Addr = server.Addr[idx+3:]
	}

	listener, err := new(net.ListenConfig).Listen(ctx, network, server.Addr)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed to create a listener")
	}

	slogctx.Info(ctx, "A listener started", "address", listener.Addr().String())

	go func() {
		slogctx.Info(ctx, "Serving an HTTP server", "address", listener.Addr().String())
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogctx.Error(ctx, "Failed to serve an HTTP server", "error", err)
		}

		slogctx.Info(ctx, "Stopped an HTTP server")
	}()

	<-ctx.Done()

	shutdownCtx, shutdownRelease := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer shutdownRelease()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed shutting down HTTP server")
	}

	slogctx.Info(ctx, "Completed graceful shutdown of HTTP server")

	return nil
}
