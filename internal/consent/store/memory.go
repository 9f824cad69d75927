package store

import (
	"context"
	"sync"

	"datamesh/internal/consent"
	id "datamesh/pkg/domain"
	"datamesh/pkg/platform/sentinel"
)

// InMemory holds consent records in process memory. Used by tests and by
// deployments that sideload consent snapshots instead of querying the
// tenant-administration database.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.TenantID]consent.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.TenantID]consent.Record)}
}

// GetTenantConsent returns the tenant's consent record, or
// sentinel.ErrNotFound when the tenant has never recorded a decision.
func (s *InMemory) GetTenantConsent(_ context.Context, tenantID id.TenantID) (*consent.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := r
	out.AllowedCategories = append([]id.EntityType(nil), r.AllowedCategories...)
	return &out, nil
}

// Put upserts a record. Administration-side helper; the pipeline never writes.
func (s *InMemory) Put(_ context.Context, record consent.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.TenantID] = record
	return nil
}

// Delete removes a tenant's record.
func (s *InMemory) Delete(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, tenantID)
	return nil
}
