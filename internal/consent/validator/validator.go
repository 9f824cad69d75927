// Package validator decides whether a tenant's entity may be contributed
// to the data network. Decisions fail closed: a missing tenant id, a
// missing consent record or an errored lookup all deny contribution.
package validator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"datamesh/internal/consent"
	id "datamesh/pkg/domain"
	dErrors "datamesh/pkg/domain-errors"
	"datamesh/pkg/platform/sentinel"
)

// Provider is the tenant-administration read interface the validator
// depends on. Implementations return sentinel.ErrNotFound when the tenant
// has never recorded a decision.
type Provider interface {
	GetTenantConsent(ctx context.Context, tenantID id.TenantID) (*consent.Record, error)
}

// CacheMetrics receives cache outcome signals. Optional.
type CacheMetrics interface {
	IncConsentCacheHit()
	IncConsentCacheMiss()
}

// DefaultCacheTTL bounds consent staleness when no TTL is configured.
const DefaultCacheTTL = 30 * time.Second

type cacheEntry struct {
	record    *consent.Record // nil means "no record exists" (negative entry)
	expiresAt time.Time
}

// Validator answers consent questions for (tenant, entity type) pairs with
// a bounded-TTL cache in front of the provider.
//
// The cache is internally synchronized and safe for concurrent use. It is
// owned by the validator instance, never process-global; construction scope
// decides its lifetime. Staleness is bounded by the TTL, and consent
// changes are propagated eagerly via Invalidate.
type Validator struct {
	provider Provider
	ttl      time.Duration
	clock    func() time.Time
	logger   *slog.Logger
	metrics  CacheMetrics

	mu    sync.RWMutex
	cache map[id.TenantID]cacheEntry
}

// Option configures the Validator.
type Option func(*Validator)

// WithLogger sets a logger for lookup failure warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithTTL overrides the cache TTL. Zero or negative disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(v *Validator) {
		v.ttl = ttl
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(v *Validator) {
		if clock != nil {
			v.clock = clock
		}
	}
}

// WithCacheMetrics sets the cache metrics sink.
func WithCacheMetrics(m CacheMetrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

// New creates a consent validator backed by the given provider.
func New(provider Provider, opts ...Option) (*Validator, error) {
	if provider == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "consent provider is required")
	}
	v := &Validator{
		provider: provider,
		ttl:      DefaultCacheTTL,
		clock:    time.Now,
		cache:    make(map[id.TenantID]cacheEntry),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// ValidateConsent returns the contribution decision for the tenant and
// entity type.
//
// Policy:
//   - empty tenant id: denied, no lookup
//   - no consent record: denied
//   - lookup error: denied (fail closed), logged as a warning
//   - category scope excludes the type: IncludesEntityType=false
//
// Errors: only CodeInvalidInput for an empty entity type. Lookup failures
// never surface as errors; they surface as denial.
func (v *Validator) ValidateConsent(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) (consent.Result, error) {
	if entityType == "" {
		return consent.Denied, dErrors.New(dErrors.CodeInvalidInput, "entity type is required")
	}
	if tenantID.IsEmpty() {
		return consent.Denied, nil
	}

	record, err := v.lookup(ctx, tenantID)
	if err != nil {
		if v.logger != nil {
			v.logger.WarnContext(ctx, "consent lookup failed, denying contribution",
				"tenant_id", tenantID.String(),
				"entity_type", entityType.String(),
				"error", err,
			)
		}
		return consent.Denied, nil
	}
	if record == nil || !record.HasConsent {
		return consent.Denied, nil
	}

	return consent.Result{
		HasConsent:         true,
		ScrubbingLevel:     record.ScrubbingLevel.OrStrict(),
		ConsentVersion:     record.ConsentVersion,
		IncludesEntityType: record.AllowsType(entityType),
	}, nil
}

// lookup consults the cache first, then the provider. A "no record" answer
// is cached too, so absent tenants do not hammer the provider.
func (v *Validator) lookup(ctx context.Context, tenantID id.TenantID) (*consent.Record, error) {
	if v.ttl > 0 {
		v.mu.RLock()
		entry, ok := v.cache[tenantID]
		v.mu.RUnlock()
		if ok && v.clock().Before(entry.expiresAt) {
			if v.metrics != nil {
				v.metrics.IncConsentCacheHit()
			}
			return entry.record, nil
		}
	}
	if v.metrics != nil {
		v.metrics.IncConsentCacheMiss()
	}

	record, err := v.provider.GetTenantConsent(ctx, tenantID)
	switch {
	case err == nil:
	case dErrors.Is(err, sentinel.ErrNotFound):
		record = nil
	default:
		return nil, err
	}

	if v.ttl > 0 {
		v.mu.Lock()
		v.cache[tenantID] = cacheEntry{record: record, expiresAt: v.clock().Add(v.ttl)}
		v.mu.Unlock()
	}
	return record, nil
}

// Invalidate drops the cached decision for one tenant. Tenant
// administration calls this (directly or via the consent-events listener)
// whenever the tenant's consent changes.
func (v *Validator) Invalidate(tenantID id.TenantID) {
	v.mu.Lock()
	delete(v.cache, tenantID)
	v.mu.Unlock()
}

// InvalidateAll clears the cache.
func (v *Validator) InvalidateAll() {
	v.mu.Lock()
	v.cache = make(map[id.TenantID]cacheEntry)
	v.mu.Unlock()
}
