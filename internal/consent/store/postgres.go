package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"datamesh/internal/consent"
	id "datamesh/pkg/domain"
	"datamesh/pkg/platform/sentinel"
)

// Postgres reads consent records from the tenant-administration database.
// The pipeline side is strictly read-only; grants and revocations happen in
// the administration service, which signals changes for cache invalidation.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// GetTenantConsent looks up the tenant's contribution consent.
// Returns sentinel.ErrNotFound when no record exists.
func (s *Postgres) GetTenantConsent(ctx context.Context, tenantID id.TenantID) (*consent.Record, error) {
	query := `
		SELECT tenant_id, has_consent, scrubbing_level, consent_version, allowed_categories, updated_at
		FROM tenant_consent
		WHERE tenant_id = $1
	`
	var (
		record     consent.Record
		level      string
		categories []string
	)
	err := s.db.QueryRowContext(ctx, query, tenantID.String()).Scan(
		&record.TenantID,
		&record.HasConsent,
		&level,
		&record.ConsentVersion,
		pq.Array(&categories),
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant consent: %w", err)
	}

	// Unknown level strings in old rows degrade to strict downstream.
	record.ScrubbingLevel = id.ScrubbingLevel(level).OrStrict()
	record.AllowedCategories = make([]id.EntityType, 0, len(categories))
	for _, c := range categories {
		record.AllowedCategories = append(record.AllowedCategories, id.EntityType(c))
	}
	return &record, nil
}
