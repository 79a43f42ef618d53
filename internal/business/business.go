package business

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/lucid-framework/auth-gateway/internal/business/server"
	"github.com/lucid-framework/auth-gateway/internal/config"
	"github.com/lucid-framework/auth-gateway/internal/flow"
	"github.com/lucid-framework/auth-gateway/internal/provider/webflow"
	"github.com/lucid-framework/auth-gateway/internal/routes"
	"github.com/lucid-framework/auth-gateway/internal/session"
	"github.com/lucid-framework/auth-gateway/internal/state"
	"github.com/lucid-framework/auth-gateway/internal/storage"
	"github.com/lucid-framework/auth-gateway/internal/storage/memory"
	valkeystore "github.com/lucid-framework/auth-gateway/internal/storage/valkey"
)

const sweepInterval = time.Minute

// Main wires the gateway and runs the HTTP server until the context is
// cancelled.
func Main(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deps, closeFn, err := initGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the gateway: %w", err)
	}

	defer closeFn()

	// errChan is used to capture the first error and shutdown the servers.
	errChan := make(chan error, 1)

	// wg is used to wait for all servers to shutdown.
	var wg sync.WaitGroup

	wg.Go(func() {
		errChan <- server.StartHTTPServer(ctx, cfg, deps)
	})

	// The ephemeral store needs a periodic sweep to bound memory between
	// reads; the durable store expires keys itself.
	if ephemeral, ok := deps.Backend.(*memory.Store); ok {
		wg.Go(func() {
			sweep(ctx, ephemeral)
		})
	}

	// wait for any error to initiate the shutdown
	if err := <-errChan; err != nil {
		slogctx.Error(ctx, "Shutting down servers", "error", err)
	}
	cancel()

	// wait for all servers to shutdown
	wg.Wait()

	return nil
}

func initGateway(ctx context.Context, cfg *config.Config) (_ server.Dependencies, closeFn func(), _ error) {
	clientID, err := commoncfg.LoadValueFromSourceRef(cfg.OAuth.ClientID)
	if err != nil {
		return server.Dependencies{}, nil, fmt.Errorf("loading OAuth client ID: %w", err)
	}

	clientSecret, err := commoncfg.LoadValueFromSourceRef(cfg.OAuth.ClientSecret)
	if err != nil {
		return server.Dependencies{}, nil, fmt.Errorf("loading OAuth client secret: %w", err)
	}

	backend, closeFn := newBackend(ctx, cfg)

	states := state.NewLedger(backend, cfg.Session.StateDuration)
	sessions := session.NewLedger(backend, cfg.Session.Duration)

	prov := webflow.New(string(clientID), string(clientSecret), cfg.OAuth.RedirectURI())

	var flowOpts []flow.Option
	if cfg.Session.AllowUnverifiedState {
		slogctx.Warn(ctx, "Unverified callback states are allowed, sessions without a verified state will be low assurance")

		flowOpts = append(flowOpts, flow.WithUnverifiedStateAllowed())
	}

	controller := flow.NewController(states, sessions, prov, string(clientID), string(clientSecret), flowOpts...)

	rules := routes.DefaultRules()

	if cfg.Routes.File != "" {
		rules, err = routes.LoadRules(cfg.Routes.File)
		if err != nil {
			closeFn()

			return server.Dependencies{}, nil, fmt.Errorf("loading route rules: %w", err)
		}

		slogctx.Info(ctx, "Loaded route protection rules", "file", cfg.Routes.File, "rules", len(rules))
	}

	return server.Dependencies{
		Flow:       controller,
		Sessions:   sessions,
		States:     states,
		Backend:    backend,
		Classifier: routes.NewClassifier(rules),
	}, closeFn, nil
}

// newBackend dials the durable store and falls back to the ephemeral one
// when it cannot be reached. The gateway always comes up; the health
// endpoint surfaces which backend is serving.
func newBackend(ctx context.Context, cfg *config.Config) (storage.Backend, func()) {
	host, err := commoncfg.LoadValueFromSourceRef(cfg.ValKey.Host)
	if err != nil || len(host) == 0 {
		slogctx.Warn(ctx, "No valkey host configured, using the ephemeral in-memory store", "error", err)

		return memory.New(), func() {}
	}

	username, err := commoncfg.LoadValueFromSourceRef(cfg.ValKey.User)
	if err != nil {
		slogctx.Warn(ctx, "Failed to load valkey username, using the ephemeral in-memory store", "error", err)

		return memory.New(), func() {}
	}

	password, err := commoncfg.LoadValueFromSourceRef(cfg.ValKey.Password)
	if err != nil {
		slogctx.Warn(ctx, "Failed to load valkey password, using the ephemeral in-memory store", "error", err)

		return memory.New(), func() {}
	}

	valkeyClient, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{string(host)},
		Username:    string(username),
		Password:    string(password),
	})
	if err != nil {
		slogctx.Warn(ctx, "Failed to create a valkey client, using the ephemeral in-memory store", "error", err)

		return memory.New(), func() {}
	}

	store := valkeystore.New(valkeyClient, cfg.ValKey.Prefix)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ValKey.DialTimeout)
	defer cancel()

	if err := store.Ping(pingCtx); err != nil {
		slogctx.Warn(ctx, "Valkey did not answer the ping, using the ephemeral in-memory store", "error", err)
		valkeyClient.Close()

		return memory.New(), func() {}
	}

	slogctx.Info(ctx, "Connected to valkey", "prefix", cfg.ValKey.Prefix)

	return store, valkeyClient.Close
}

func sweep(ctx context.Context, store *memory.Store) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			store.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
