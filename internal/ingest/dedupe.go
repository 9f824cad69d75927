package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "datamesh/pkg/domain"
)

// Deduper suppresses repeat contributions. The pipeline core guarantees
// at-most-once per call but no idempotency across retries; de-duplication
// by hashed identity is the caller's job, and this worker is the caller.
type Deduper interface {
	// Claim marks the entity as contributed and reports whether this call
	// won the claim. False means another worker already contributed it
	// within the dedupe window.
	Claim(ctx context.Context, tenantID id.TenantID, entityID string) (bool, error)

	// Release drops a claim after a failed or rejected contribution so a
	// later retry is not suppressed.
	Release(ctx context.Context, tenantID id.TenantID, entityID string) error
}

// DefaultDedupeWindow bounds how long a claim suppresses duplicates.
const DefaultDedupeWindow = 24 * time.Hour

// RedisDeduper implements Deduper on redis SET NX. Keys are salted hashes
// of (tenant, entity id); raw identifiers never reach redis.
type RedisDeduper struct {
	client *redis.Client
	salt   string
	window time.Duration
}

// NewRedisDeduper creates a deduper with the given claim window. A zero
// window uses DefaultDedupeWindow.
func NewRedisDeduper(client *redis.Client, salt string, window time.Duration) *RedisDeduper {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &RedisDeduper{client: client, salt: salt, window: window}
}

func (d *RedisDeduper) key(tenantID id.TenantID, entityID string) string {
	sum := sha256.Sum256([]byte(d.salt + "|" + tenantID.String() + "|" + entityID))
	return "datamesh:contrib:" + hex.EncodeToString(sum[:])
}

// Claim attempts SET NX with the window as TTL.
func (d *RedisDeduper) Claim(ctx context.Context, tenantID id.TenantID, entityID string) (bool, error) {
	won, err := d.client.SetNX(ctx, d.key(tenantID, entityID), 1, d.window).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe claim: %w", err)
	}
	return won, nil
}

// Release drops a claim so a failed contribution can be retried.
func (d *RedisDeduper) Release(ctx context.Context, tenantID id.TenantID, entityID string) error {
	if err := d.client.Del(ctx, d.key(tenantID, entityID)).Err(); err != nil {
		return fmt.Errorf("dedupe release: %w", err)
	}
	return nil
}
