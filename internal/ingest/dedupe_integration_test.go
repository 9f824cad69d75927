//go:build integration

package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"datamesh/internal/ingest"
	id "datamesh/pkg/domain"
	"datamesh/pkg/testutil/containers"
)

func TestRedisDeduper(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	deduper := ingest.NewRedisDeduper(rc.Client, "test-salt", time.Minute)

	tenant := id.TenantID("tenant-a")

	t.Run("first claim wins, second loses", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		won, err := deduper.Claim(ctx, tenant, "entity-1")
		require.NoError(t, err)
		require.True(t, won)

		won, err = deduper.Claim(ctx, tenant, "entity-1")
		require.NoError(t, err)
		require.False(t, won)
	})

	t.Run("release frees the claim", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		won, err := deduper.Claim(ctx, tenant, "entity-2")
		require.NoError(t, err)
		require.True(t, won)

		require.NoError(t, deduper.Release(ctx, tenant, "entity-2"))

		won, err = deduper.Claim(ctx, tenant, "entity-2")
		require.NoError(t, err)
		require.True(t, won)
	})

	t.Run("claims are scoped per tenant", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		won, err := deduper.Claim(ctx, tenant, "entity-3")
		require.NoError(t, err)
		require.True(t, won)

		won, err = deduper.Claim(ctx, id.TenantID("tenant-b"), "entity-3")
		require.NoError(t, err)
		require.True(t, won)
	})

	t.Run("raw identifiers never appear in keys", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		_, err := deduper.Claim(ctx, tenant, "entity-4")
		require.NoError(t, err)

		keys, err := rc.Client.Keys(ctx, "*").Result()
		require.NoError(t, err)
		require.Len(t, keys, 1)
		require.NotContains(t, keys[0], "entity-4")
		require.NotContains(t, keys[0], "tenant-a")
	})
}
