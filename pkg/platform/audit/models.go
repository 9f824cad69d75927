package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// every contribution decision made under a tenant's consent.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and
	// operational visibility. These can be sampled with short retention.
	CategoryOperations EventCategory = "operations"
)

// Event records one pipeline outcome. It is transport-agnostic so stores
// and sinks can fan out.
//
// Invariant: events carry entity type, domain and hashed tenant identity.
// Raw tenant ids, raw entity ids and property values never enter the
// audit trail.
type Event struct {
	Category       EventCategory
	Timestamp      time.Time
	Action         string
	EntityType     string
	Domain         string
	TenantHash     string
	ScrubbingLevel string
	ConsentVersion string
	// Reason carries the denial or failure detail for non-accepted
	// outcomes. Free text, but never populated from property values.
	Reason string
}

type AuditEvent string

const (
	// Contribution outcomes
	EventContributionAccepted   AuditEvent = "contribution_accepted"
	EventContributionNoConsent  AuditEvent = "contribution_rejected_no_consent"
	EventContributionOutOfScope AuditEvent = "contribution_rejected_out_of_scope"
	EventContributionFailed     AuditEvent = "contribution_failed"

	// Consent cache lifecycle
	EventConsentInvalidated AuditEvent = "consent_cache_invalidated"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventContributionAccepted:   CategoryCompliance,
	EventContributionNoConsent:  CategoryCompliance,
	EventContributionOutOfScope: CategoryCompliance,
	EventContributionFailed:     CategoryOperations,
	EventConsentInvalidated:     CategoryOperations,
}

// Category returns the category for this event, defaulting to operations
// for unmapped actions.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
