// Package scrubber removes or obfuscates PII from entities before they are
// contributed to the data network. Classification is pattern-based on
// property key names, never schema-aware; strength is policy-selected per
// tenant. The scrubber always favors over-scrubbing: any field it cannot
// transform is dropped, never passed through.
package scrubber

import (
	"encoding/json"
	"log/slog"
	"time"

	"datamesh/internal/entity"
	id "datamesh/pkg/domain"
	dErrors "datamesh/pkg/domain-errors"
)

// Provenance annotation keys written into the scrubbed entity's metadata.
const (
	MetaScrubbed           = "scrubbed"
	MetaScrubbingLevel     = "scrubbing_level"
	MetaEntityType         = "entity_type"
	MetaScrubbedAt         = "scrubbed_at"
	MetaOriginalTenantHash = "original_tenant_hash"
	MetaPatternVersion     = "pii_pattern_version"
)

// Scrubber transforms entities into contribution-safe copies.
// Safe for concurrent use; it holds no per-entity state.
type Scrubber struct {
	h      hasher
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures the Scrubber.
type Option func(*Scrubber)

// WithLogger sets a logger for per-field drop warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scrubber) {
		s.logger = logger
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Scrubber) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a scrubber. The salt keys every hash and token the scrubber
// produces; changing it breaks join-ability with previously contributed
// records, so it must be stable per deployment.
func New(salt string, opts ...Option) (*Scrubber, error) {
	if salt == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "scrub salt is required")
	}
	s := &Scrubber{
		h:     hasher{salt: salt},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ScrubEntity returns a new, structurally equivalent entity with PII
// removed per the level. The input is never mutated.
//
// Regardless of level:
//   - always-remove and derived-secret fields are stripped
//   - the id is replaced with a one-way, tenant-salted hash
//   - the tenant id is cleared; its hash lands in the metadata
//
// Errors: CodeInvalidInput for a nil or structurally unusable entity.
// Per-field transform failures never abort the entity; the field is
// dropped and counted instead.
func (s *Scrubber) ScrubEntity(e *entity.Entity, entityType id.EntityType, level id.ScrubbingLevel) (*entity.Entity, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if entityType == "" {
		entityType = e.Type
	}
	level = level.OrStrict()

	out := e.Clone()
	tenantID := out.TenantID
	out.ID = s.h.HashEntityID(e.ID, tenantID)
	out.TenantID = ""

	out.Properties = s.scrubProperties(e.Type, out.Properties, level)
	out.Metadata = s.scrubMetadata(e.Type, out.Metadata, level)

	if out.Metadata == nil {
		out.Metadata = make(map[string]string, 6)
	}
	out.Metadata[MetaScrubbed] = "true"
	out.Metadata[MetaScrubbingLevel] = level.String()
	out.Metadata[MetaEntityType] = entityType.String()
	out.Metadata[MetaScrubbedAt] = s.clock().UTC().Format(time.RFC3339)
	out.Metadata[MetaPatternVersion] = PatternTableVersion
	if hash := s.h.HashTenant(tenantID); hash != "" {
		out.Metadata[MetaOriginalTenantHash] = hash
	}
	return out, nil
}

// TenantHash exposes the provenance tenant hash for contribution metadata.
func (s *Scrubber) TenantHash(tenantID id.TenantID) string {
	return s.h.HashTenant(tenantID)
}

func (s *Scrubber) scrubProperties(entityType id.EntityType, props map[string]entity.Value, level id.ScrubbingLevel) map[string]entity.Value {
	if props == nil {
		return nil
	}
	out := make(map[string]entity.Value, len(props))
	for key, value := range props {
		scrubbed, keep, err := s.scrubField(key, value, level)
		if err != nil {
			// Per-field isolation: a field that cannot be transformed is
			// dropped rather than failing the entity.
			if s.logger != nil {
				s.logger.Warn("dropping property that failed to scrub",
					"entity_type", entityType.String(),
					"property", key,
					"error", err,
				)
			}
			continue
		}
		if keep {
			out[key] = scrubbed
		}
	}
	return out
}

func (s *Scrubber) scrubField(key string, value entity.Value, level id.ScrubbingLevel) (entity.Value, bool, error) {
	if isAlwaysRemove(key) || isDerivedSecret(key) {
		return entity.Value{}, false, nil
	}

	category := classifyPII(key)
	switch level {
	case id.ScrubbingStrict:
		if category != CategoryNone {
			return entity.Value{}, false, nil
		}
		if isDateLike(key) {
			generalized, err := generalizeDate(value)
			if err != nil {
				return entity.Value{}, false, err
			}
			return generalized, true, nil
		}
	case id.ScrubbingModerate:
		if category != CategoryNone {
			token, err := s.tokenizeValue(value)
			if err != nil {
				return entity.Value{}, false, err
			}
			return entity.String(token), true, nil
		}
	case id.ScrubbingMinimal:
		// only the always-remove and derived-secret strips apply
	}

	// Nested structures get the same treatment so PII cannot hide one
	// level down in an open-ended property dictionary.
	return s.scrubNested(value, level)
}

func (s *Scrubber) scrubNested(value entity.Value, level id.ScrubbingLevel) (entity.Value, bool, error) {
	switch value.Kind() {
	case entity.KindMap:
		m, err := value.AsMap()
		if err != nil {
			return entity.Value{}, false, err
		}
		return entity.Map(s.scrubProperties("", m, level)), true, nil
	case entity.KindList:
		l, err := value.AsList()
		if err != nil {
			return entity.Value{}, false, err
		}
		out := make([]entity.Value, 0, len(l))
		for _, elem := range l {
			scrubbed, keep, err := s.scrubNested(elem, level)
			if err != nil {
				return entity.Value{}, false, err
			}
			if keep {
				out = append(out, scrubbed)
			}
		}
		return entity.List(out), true, nil
	default:
		return value, true, nil
	}
}

// scrubMetadata applies the same key classification to the string-valued
// metadata map. Provenance annotations survive; anything PII-shaped does
// not leave unscathed.
func (s *Scrubber) scrubMetadata(entityType id.EntityType, meta map[string]string, level id.ScrubbingLevel) map[string]string {
	if meta == nil {
		return nil
	}
	out := make(map[string]string, len(meta))
	for key, value := range meta {
		if isAlwaysRemove(key) || isDerivedSecret(key) {
			continue
		}
		category := classifyPII(key)
		switch level {
		case id.ScrubbingStrict:
			if category != CategoryNone {
				continue
			}
		case id.ScrubbingModerate:
			if category != CategoryNone {
				token, err := s.h.Tokenize(value)
				if err != nil {
					continue
				}
				out[key] = token
				continue
			}
		}
		out[key] = value
	}
	return out
}

// tokenizeValue derives the deterministic plaintext for tokenization.
// String values tokenize their content directly; composite values
// tokenize their canonical JSON encoding (map keys sort, so the encoding
// is stable).
func (s *Scrubber) tokenizeValue(value entity.Value) (string, error) {
	if str, err := value.AsString(); err == nil {
		return s.h.Tokenize(str)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return s.h.Tokenize(string(raw))
}

// generalizeDate truncates a date-like value to the first day of its
// month, discarding day-of-month granularity.
func generalizeDate(value entity.Value) (entity.Value, error) {
	t, err := value.AsTime()
	if err != nil {
		return entity.Value{}, err
	}
	return entity.Time(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())), nil
}
