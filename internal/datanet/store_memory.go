package datanet

import (
	"context"
	"sync"

	"datamesh/internal/entity"
	dErrors "datamesh/pkg/domain-errors"
)

// Contribution pairs a stored entity with its provenance metadata.
type Contribution struct {
	Entity   *entity.Entity
	Metadata Metadata
}

// InMemory is a process-local data network store for tests and local runs.
type InMemory struct {
	mu            sync.RWMutex
	contributions []Contribution
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Write appends the contribution. The entity is cloned so later caller
// mutations cannot reach the stored copy.
func (s *InMemory) Write(_ context.Context, scrubbed *entity.Entity, meta Metadata) error {
	if scrubbed == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "scrubbed entity is nil")
	}
	if !scrubbed.TenantID.IsEmpty() {
		return dErrors.New(dErrors.CodeInvariantViolation, "scrubbed entity still carries a tenant id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributions = append(s.contributions, Contribution{Entity: scrubbed.Clone(), Metadata: meta})
	return nil
}

// All returns a snapshot of every contribution, oldest first.
func (s *InMemory) All() []Contribution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Contribution(nil), s.contributions...)
}

// Len returns the number of stored contributions.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contributions)
}
