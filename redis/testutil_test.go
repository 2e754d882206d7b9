package redis

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// setupTestStore starts a throwaway redis container and returns a Store
// connected to it. The container is terminated when the test finishes.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	cs, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get connection string")

	u, err := url.Parse(cs)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	store := New(host, port)
	require.NoError(t, store.Ping(ctx))
	return store
}
