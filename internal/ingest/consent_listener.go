package ingest

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	id "datamesh/pkg/domain"
)

// Invalidator is the validator surface the listener drives.
type Invalidator interface {
	Invalidate(tenantID id.TenantID)
}

// consentChange is the payload tenant administration publishes whenever a
// tenant's contribution consent changes.
type consentChange struct {
	TenantID string `json:"tenant_id"`
}

// ConsentListener invalidates cached consent decisions when tenant
// administration announces a change, keeping cache staleness below the
// TTL bound for the tenants that actually changed.
type ConsentListener struct {
	client      *kgo.Client
	invalidator Invalidator
	logger      *slog.Logger
}

// NewConsentListener creates a listener over an already-configured Kafka
// client subscribed to the consent-events topic.
func NewConsentListener(client *kgo.Client, invalidator Invalidator, logger *slog.Logger) *ConsentListener {
	return &ConsentListener{client: client, invalidator: invalidator, logger: logger}
}

// Run polls until the context is cancelled.
func (l *ConsentListener) Run(ctx context.Context) error {
	for {
		fetches := l.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if l.logger != nil {
				l.logger.Error("fetch error", "topic", topic, "partition", partition, "error", err)
			}
		})
		fetches.EachRecord(func(record *kgo.Record) {
			l.handleRecord(record.Value)
		})
	}
}

func (l *ConsentListener) handleRecord(value []byte) {
	var change consentChange
	if err := json.Unmarshal(value, &change); err != nil {
		if l.logger != nil {
			l.logger.Warn("skipping malformed consent event", "error", err)
		}
		return
	}
	if change.TenantID == "" {
		return
	}
	l.invalidator.Invalidate(id.TenantID(change.TenantID))
	if l.logger != nil {
		l.logger.Debug("consent cache invalidated", "tenant_id", change.TenantID)
	}
}
