package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"datamesh/internal/consent"
	id "datamesh/pkg/domain"
	"datamesh/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newRecord(tenantID string) consent.Record {
	return consent.Record{
		TenantID:          id.TenantID(tenantID),
		HasConsent:        true,
		ScrubbingLevel:    id.ScrubbingModerate,
		ConsentVersion:    "v2",
		AllowedCategories: []id.EntityType{"Client"},
		UpdatedAt:         time.Now(),
	}
}

func (s *MemoryStoreSuite) TestPutAndGet() {
	record := s.newRecord("t-1")
	s.Require().NoError(s.store.Put(s.ctx, record))

	found, err := s.store.GetTenantConsent(s.ctx, "t-1")
	s.Require().NoError(err)
	s.True(found.HasConsent)
	s.Equal(id.ScrubbingModerate, found.ScrubbingLevel)
	s.Equal("v2", found.ConsentVersion)
}

func (s *MemoryStoreSuite) TestGetUnknownTenant() {
	_, err := s.store.GetTenantConsent(s.ctx, "t-missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDelete() {
	s.Require().NoError(s.store.Put(s.ctx, s.newRecord("t-1")))
	s.Require().NoError(s.store.Delete(s.ctx, "t-1"))

	_, err := s.store.GetTenantConsent(s.ctx, "t-1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestReturnedRecordIsACopy() {
	s.Require().NoError(s.store.Put(s.ctx, s.newRecord("t-1")))

	first, err := s.store.GetTenantConsent(s.ctx, "t-1")
	s.Require().NoError(err)
	first.AllowedCategories[0] = "Mutated"

	second, err := s.store.GetTenantConsent(s.ctx, "t-1")
	s.Require().NoError(err)
	s.Equal(id.EntityType("Client"), second.AllowedCategories[0])
}
