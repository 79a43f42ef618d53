// Package valkeytest launches disposable Valkey containers for the
// storage and flow tests.
package valkeytest

import (
	"context"
	"net"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	valkeycontainer "github.com/testcontainers/testcontainers-go/modules/valkey"
)

const image = "valkey/valkey:8-alpine"

// Start runs a Valkey container and returns a connected client. The
// container and the client are torn down through tb.Cleanup.
func Start(tb testing.TB) valkey.Client {
	tb.Helper()

	ctx := context.Background()

	container, err := valkeycontainer.Run(ctx, image)
	require.NoError(tb, err, "starting Valkey container")
	tb.Cleanup(func() {
		require.NoError(tb, container.Terminate(context.Background()))
	})

	port, err := container.MappedPort(ctx, nat.Port("6379"))
	require.NoError(tb, err, "mapping Valkey port")

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{net.JoinHostPort("localhost", port.Port())},
	})
	require.NoError(tb, err, "connecting to Valkey")
	tb.Cleanup(client.Close)

	return client
}
