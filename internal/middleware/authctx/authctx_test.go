package authctx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucid-framework/auth-gateway/internal/middleware/authctx"
	"github.com/lucid-framework/auth-gateway/internal/session"
)

func TestFromContext(t *testing.T) {
	authSession := session.AuthSession{
		SessionID:   "abc",
		AccessToken: "token",
		Email:       "dev@example.com",
	}

	ctx := authctx.WithSession(context.Background(), authSession)

	got, ok := authctx.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, authSession, got)
	assert.True(t, authctx.IsAuthenticated(ctx))
}

func TestFromContext_Empty(t *testing.T) {
	_, ok := authctx.FromContext(context.Background())
	assert.False(t, ok)
	assert.False(t, authctx.IsAuthenticated(context.Background()))
}
