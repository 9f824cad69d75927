package datanet

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"datamesh/internal/entity"
	"datamesh/internal/scrubber"
	dErrors "datamesh/pkg/domain-errors"
)

// Postgres writes contributions into the data network database. The *sql.DB
// handed in here must point at the datanet instance, never at a tenant
// production database; cmd/worker refuses to start when the two DSNs match.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Write durably inserts the scrubbed entity and its provenance metadata as
// a single row. One INSERT, all-or-nothing; no reads, no cross-referencing
// of tenant data.
func (s *Postgres) Write(ctx context.Context, scrubbed *entity.Entity, meta Metadata) error {
	if scrubbed == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "scrubbed entity is nil")
	}
	if !scrubbed.TenantID.IsEmpty() {
		return dErrors.New(dErrors.CodeInvariantViolation, "scrubbed entity still carries a tenant id")
	}

	properties, err := json.Marshal(scrubbed.Properties)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	annotations, err := json.Marshal(scrubbed.Metadata)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}

	query := `
		INSERT INTO contributions (
			id, entity_hash, entity_type, domain,
			original_tenant_hash, scrubbing_level, consent_version,
			pattern_version, properties, annotations, ingested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New(),
		scrubbed.ID,
		meta.EntityType.String(),
		meta.Domain,
		meta.OriginalTenantHash,
		meta.ScrubbingLevel.String(),
		meta.ConsentVersion,
		scrubbed.Metadata[scrubber.MetaPatternVersion],
		properties,
		annotations,
		meta.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("write contribution: %w", err)
	}
	return nil
}
