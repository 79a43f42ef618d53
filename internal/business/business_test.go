package business

import (
	"context"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucid-framework/auth-gateway/internal/config"
	"github.com/lucid-framework/auth-gateway/internal/storage"
)

func TestNewBackend_FallsBackWithoutHost(t *testing.T) {
	cfg := &config.Config{}
	cfg.ValKey.DialTimeout = time.Second

	backend, closeFn := newBackend(context.Background(), cfg)
	defer closeFn()

	assert.Equal(t, storage.TypeEphemeral, backend.Type())
}

func TestInitGateway_DefaultRules(t *testing.T) {
	cfg := &config.Config{}
	cfg.ValKey.DialTimeout = time.Second
	cfg.Session.Duration = 24 * time.Hour
	cfg.Session.StateDuration = 15 * time.Minute
	cfg.OAuth.BaseURL = "https://example.com"
	cfg.OAuth.ClientID = commoncfg.SourceRef{Source: commoncfg.EmbeddedSourceValue, Value: "client-id"}
	cfg.OAuth.ClientSecret = commoncfg.SourceRef{Source: commoncfg.EmbeddedSourceValue, Value: "client-secret"}

	deps, closeFn, err := initGateway(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	assert.NotNil(t, deps.Flow)
	assert.NotNil(t, deps.Sessions)
	assert.NotNil(t, deps.States)
	assert.NotNil(t, deps.Classifier)
	assert.Equal(t, storage.TypeEphemeral, deps.Backend.Type())
}

func TestInitGateway_BadRulesFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.ValKey.DialTimeout = time.Second
	cfg.Routes.File = "/nonexistent/routes.yaml"

	_, _, err := initGateway(context.Background(), cfg)
	assert.Error(t, err)
}
