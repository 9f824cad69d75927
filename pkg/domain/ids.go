package domain

import dErrors "datamesh/pkg/domain-errors"

// TenantID identifies an isolated customer account. Unlike entity ids it is
// opaque to the pipeline: it only gates consent lookups and salts hashes,
// and must never be written to the data network in the clear.
type TenantID string

// IsEmpty reports whether the tenant id is absent. An absent tenant id is
// treated as "no consent" everywhere downstream.
func (t TenantID) IsEmpty() bool {
	return t == ""
}

func (t TenantID) String() string {
	return string(t)
}

// EntityType is an open-ended tag naming an entity's kind (e.g. "Client",
// "Account"). The platform supports arbitrary per-tenant ontologies, so no
// allowlist exists; only non-emptiness is enforced.
type EntityType string

// ParseEntityType constructs an EntityType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty.
func ParseEntityType(s string) (EntityType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "entity type cannot be empty")
	}
	return EntityType(s), nil
}

func (e EntityType) String() string {
	return string(e)
}

// DomainUnknown is the sentinel domain namespace attached to contributions
// whose entity carries neither a domain annotation nor a usable source.
// Never empty: downstream bucketing relies on the sentinel being present.
const DomainUnknown = "Unknown"
