package consent

import (
	"time"

	id "datamesh/pkg/domain"
)

// Record captures a tenant's data-network contribution decision. It is
// owned by tenant administration; the pipeline only reads it.
//
// Invariants:
//   - Absence of a record is equivalent to HasConsent=false. Lookups that
//     fail are treated the same way: the pipeline fails closed, never open.
//   - An empty AllowedCategories set means every entity type is allowed.
type Record struct {
	TenantID          id.TenantID       `json:"tenant_id"`
	HasConsent        bool              `json:"has_consent"`
	ScrubbingLevel    id.ScrubbingLevel `json:"scrubbing_level"`
	ConsentVersion    string            `json:"consent_version"`
	AllowedCategories []id.EntityType   `json:"allowed_categories,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// AllowsType reports whether the record's category scope includes the
// entity type. An empty scope allows all types.
func (r *Record) AllowsType(entityType id.EntityType) bool {
	if len(r.AllowedCategories) == 0 {
		return true
	}
	for _, c := range r.AllowedCategories {
		if c == entityType {
			return true
		}
	}
	return false
}

// Result is the consent decision for one (tenant, entity type) pair.
type Result struct {
	HasConsent         bool
	ScrubbingLevel     id.ScrubbingLevel
	ConsentVersion     string
	IncludesEntityType bool
}

// Eligible reports whether the decision permits contribution.
func (r Result) Eligible() bool {
	return r.HasConsent && r.IncludesEntityType
}

// Denied is the fail-closed decision used for missing tenants, missing
// records and errored lookups.
var Denied = Result{HasConsent: false, ScrubbingLevel: id.ScrubbingStrict, IncludesEntityType: false}
