package pipeline

import (
	"strings"

	"datamesh/internal/entity"
	id "datamesh/pkg/domain"
)

// InferDomain resolves the domain namespace recorded on a contribution:
// the entity's "domain" metadata annotation when present, otherwise the
// first dot-delimited segment of its source, otherwise the Unknown
// sentinel.
//
// The heuristic is deliberately loose for entities lacking both signals.
// Tightening it would silently change which domain bucket historical
// contributions land in, so it stays as-is.
func InferDomain(e *entity.Entity) string {
	if e == nil {
		return id.DomainUnknown
	}
	if d := strings.TrimSpace(e.Metadata["domain"]); d != "" {
		return d
	}
	if e.Source != "" {
		if first, _, _ := strings.Cut(e.Source, "."); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	return id.DomainUnknown
}
