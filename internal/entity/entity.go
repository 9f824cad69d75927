package entity

import (
	"time"

	id "datamesh/pkg/domain"
	dErrors "datamesh/pkg/domain-errors"
)

// Entity is the unit of work flowing through the contribution pipeline.
//
// Invariants:
//   - Properties is the only place domain-specific PII lives; the base
//     attributes (ID, Type, TenantID, timestamps) are structural.
//   - The pipeline only reads and clones entities, never mutates the
//     caller's original.
type Entity struct {
	ID         string               `json:"id"`
	Type       id.EntityType        `json:"type"`
	TenantID   id.TenantID          `json:"tenant_id,omitempty"`
	Source     string               `json:"source,omitempty"`
	Properties map[string]Value     `json:"properties,omitempty"`
	Metadata   map[string]string    `json:"metadata,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Deleted    bool                 `json:"deleted,omitempty"`
}

// Validate checks the structural invariants an entity must satisfy before
// it may enter the pipeline. TenantID is allowed to be empty here; a
// missing tenant is a consent decision, not a malformed entity.
func (e *Entity) Validate() error {
	if e == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "entity is nil")
	}
	if e.ID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "entity id is required")
	}
	if e.Type == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "entity type is required")
	}
	return nil
}

// Clone returns an independent deep copy of the entity. Scrubbing operates
// on the clone so the caller's original is never touched.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	out := &Entity{
		ID:        e.ID,
		Type:      e.Type,
		TenantID:  e.TenantID,
		Source:    e.Source,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		Deleted:   e.Deleted,
	}
	if e.Properties != nil {
		out.Properties = make(map[string]Value, len(e.Properties))
		for k, v := range e.Properties {
			out.Properties[k] = v.Clone()
		}
	}
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
