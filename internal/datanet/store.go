// Package datanet persists scrubbed entities into the shared cross-tenant
// analytics store. The store is physically or at minimum logically separate
// from any tenant's production store; this package never reads tenant data
// and never writes into a tenant database.
package datanet

import (
	"context"

	"datamesh/internal/entity"
)

// Store is the write interface to the data network.
//
// Writes are durable and all-or-nothing from the pipeline's perspective.
// The store does not deduplicate: retrying callers may produce duplicate
// contributions unless they de-duplicate by the hashed entity id first.
type Store interface {
	Write(ctx context.Context, scrubbed *entity.Entity, meta Metadata) error
}
