// Package pipeline orchestrates data network contributions: consent gate,
// PII scrub, domain inference, shared-store write. One entity per call, no
// state across calls, safe for any number of concurrent callers.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"datamesh/internal/consent"
	"datamesh/internal/datanet"
	"datamesh/internal/entity"
	id "datamesh/pkg/domain"
	dErrors "datamesh/pkg/domain-errors"
	"datamesh/pkg/platform/audit"
)

// ConsentValidator answers consent questions for (tenant, entity type) pairs.
type ConsentValidator interface {
	ValidateConsent(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) (consent.Result, error)
}

// Scrubber transforms an entity into a contribution-safe copy.
type Scrubber interface {
	ScrubEntity(e *entity.Entity, entityType id.EntityType, level id.ScrubbingLevel) (*entity.Entity, error)
	TenantHash(tenantID id.TenantID) string
}

// AuditPublisher records contribution outcomes. Optional.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Orchestrator is the single entry point of the contribution pipeline.
type Orchestrator struct {
	validator ConsentValidator
	scrubber  Scrubber
	store     datanet.Store

	logger  *slog.Logger
	metrics *Metrics
	auditor AuditPublisher
	tracer  trace.Tracer
	clock   func() time.Time
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a logger for outcome events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithAuditPublisher sets the audit sink for contribution outcomes.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(o *Orchestrator) {
		o.auditor = publisher
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// New creates a pipeline orchestrator. Validator, scrubber and store are
// required; everything else is optional.
func New(validator ConsentValidator, scrubber Scrubber, store datanet.Store, opts ...Option) (*Orchestrator, error) {
	if validator == nil {
		return nil, fmt.Errorf("consent validator is required")
	}
	if scrubber == nil {
		return nil, fmt.Errorf("scrubber is required")
	}
	if store == nil {
		return nil, fmt.Errorf("datanet store is required")
	}
	o := &Orchestrator{
		validator: validator,
		scrubber:  scrubber,
		store:     store,
		tracer:    otel.Tracer("datamesh/pipeline"),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ProcessEntity runs one entity through the pipeline and reports whether a
// contribution was written. It never panics and never returns an error;
// callers that need the cause use Process.
func (o *Orchestrator) ProcessEntity(ctx context.Context, e *entity.Entity) bool {
	ok, _ := o.Process(ctx, e)
	return ok
}

// Process is ProcessEntity with the failure cause. The boolean is the
// contract: true means a contribution was durably written, false means
// nothing reached the data network. The error distinguishes programming
// errors (coded invalid-input) and runtime failures from consent denials,
// which are false with a nil error.
func (o *Orchestrator) Process(ctx context.Context, e *entity.Entity) (ok bool, err error) {
	start := time.Now()
	defer func() {
		if o.metrics != nil {
			o.metrics.ObserveProcessDuration(time.Since(start).Seconds())
		}
		// The pipeline must never throw out of ProcessEntity. Anything a
		// transform panics with becomes a logged failure.
		if r := recover(); r != nil {
			ok = false
			err = dErrors.New(dErrors.CodeInternal, fmt.Sprintf("pipeline panic: %v", r))
			o.observeFailure(ctx, e, "", err)
		}
	}()

	if err := e.Validate(); err != nil {
		// Programming error: reported as invalid argument, not swallowed.
		return false, err
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.Process",
		trace.WithAttributes(attribute.String("entity.type", e.Type.String())),
	)
	defer span.End()

	decision, err := o.validator.ValidateConsent(ctx, e.TenantID, e.Type)
	if err != nil {
		return false, err
	}
	if !decision.HasConsent {
		o.observeRejection(ctx, e, audit.EventContributionNoConsent)
		return false, nil
	}
	if !decision.IncludesEntityType {
		o.observeRejection(ctx, e, audit.EventContributionOutOfScope)
		return false, nil
	}

	scrubbed, err := o.scrubber.ScrubEntity(e, e.Type, decision.ScrubbingLevel)
	if err != nil {
		o.observeFailure(ctx, e, decision.ScrubbingLevel, err)
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "scrub entity")
	}

	domain := InferDomain(e)
	span.SetAttributes(attribute.String("contribution.domain", domain))

	meta := datanet.Metadata{
		Domain:             domain,
		EntityType:         e.Type,
		OriginalTenantHash: o.scrubber.TenantHash(e.TenantID),
		ScrubbingLevel:     decision.ScrubbingLevel,
		ConsentVersion:     decision.ConsentVersion,
		IngestedAt:         o.clock().UTC(),
	}
	if err := o.store.Write(ctx, scrubbed, meta); err != nil {
		o.observeFailure(ctx, e, decision.ScrubbingLevel, err)
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "write contribution")
	}

	o.observeAccepted(ctx, e, meta)
	return true, nil
}

func (o *Orchestrator) observeAccepted(ctx context.Context, e *entity.Entity, meta datanet.Metadata) {
	if o.metrics != nil {
		o.metrics.IncAccepted()
	}
	if o.logger != nil {
		o.logger.InfoContext(ctx, "contribution accepted",
			"entity_type", e.Type.String(),
			"domain", meta.Domain,
			"scrubbing_level", meta.ScrubbingLevel.String(),
		)
	}
	o.emit(ctx, audit.Event{
		Action:         string(audit.EventContributionAccepted),
		EntityType:     e.Type.String(),
		Domain:         meta.Domain,
		TenantHash:     meta.OriginalTenantHash,
		ScrubbingLevel: meta.ScrubbingLevel.String(),
		ConsentVersion: meta.ConsentVersion,
	})
}

func (o *Orchestrator) observeRejection(ctx context.Context, e *entity.Entity, action audit.AuditEvent) {
	if o.metrics != nil {
		switch action {
		case audit.EventContributionNoConsent:
			o.metrics.IncRejectedNoConsent()
		case audit.EventContributionOutOfScope:
			o.metrics.IncRejectedOutOfScope()
		}
	}
	if o.logger != nil {
		o.logger.DebugContext(ctx, "contribution rejected",
			"entity_type", e.Type.String(),
			"reason", string(action),
		)
	}
	o.emit(ctx, audit.Event{
		Action:     string(action),
		EntityType: e.Type.String(),
		Domain:     InferDomain(e),
		TenantHash: o.scrubber.TenantHash(e.TenantID),
	})
}

func (o *Orchestrator) observeFailure(ctx context.Context, e *entity.Entity, level id.ScrubbingLevel, cause error) {
	if o.metrics != nil {
		o.metrics.IncFailed()
	}
	entityType, domain, tenantHash := "", id.DomainUnknown, ""
	if e != nil {
		entityType = e.Type.String()
		domain = InferDomain(e)
		tenantHash = o.scrubber.TenantHash(e.TenantID)
	}
	if o.logger != nil {
		// Entity type and tenant hash only; raw identifiers and property
		// values stay out of the log.
		o.logger.ErrorContext(ctx, "contribution failed",
			"entity_type", entityType,
			"domain", domain,
			"error", cause,
		)
	}
	o.emit(ctx, audit.Event{
		Action:         string(audit.EventContributionFailed),
		EntityType:     entityType,
		Domain:         domain,
		TenantHash:     tenantHash,
		ScrubbingLevel: level.String(),
		Reason:         cause.Error(),
	})
}

func (o *Orchestrator) emit(ctx context.Context, event audit.Event) {
	if o.auditor == nil {
		return
	}
	if err := o.auditor.Emit(ctx, event); err != nil && o.logger != nil {
		o.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
