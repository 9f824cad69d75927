package datanet

import (
	"time"

	id "datamesh/pkg/domain"
)

// Metadata is the provenance record attached alongside a contribution.
// Immutable once written; consumers use it for audit and bucketing, never
// to reverse a contribution back to a tenant identity.
type Metadata struct {
	Domain             string            `json:"domain"`
	EntityType         id.EntityType     `json:"entity_type"`
	OriginalTenantHash string            `json:"original_tenant_hash"`
	ScrubbingLevel     id.ScrubbingLevel `json:"scrubbing_level"`
	ConsentVersion     string            `json:"consent_version"`
	IngestedAt         time.Time         `json:"ingested_at"`
}
