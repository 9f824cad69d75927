// Package ingest is the reference caller of the contribution pipeline: it
// consumes entity events from Kafka, de-duplicates, and hands each entity
// to the orchestrator. Retries, timeouts and dedupe live here, outside the
// pipeline core.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"datamesh/internal/entity"
)

// Pipeline is the orchestrator surface the consumer drives.
type Pipeline interface {
	ProcessEntity(ctx context.Context, e *entity.Entity) bool
}

// DefaultProcessTimeout caps a single entity's consent lookup plus store
// write; both are network-bound and the core mandates no timeout itself.
const DefaultProcessTimeout = 10 * time.Second

// Consumer polls the entities topic and feeds the pipeline.
type Consumer struct {
	client   *kgo.Client
	pipeline Pipeline

	deduper Deduper
	logger  *slog.Logger
	timeout time.Duration
}

// ConsumerOption configures the Consumer.
type ConsumerOption func(*Consumer)

// WithDeduper enables contribution de-duplication.
func WithDeduper(d Deduper) ConsumerOption {
	return func(c *Consumer) {
		c.deduper = d
	}
}

// WithLogger sets the consumer logger.
func WithLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// WithProcessTimeout overrides the per-entity timeout.
func WithProcessTimeout(timeout time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewConsumer creates a consumer over an already-configured Kafka client.
// The client must be subscribed to the entities topic.
func NewConsumer(client *kgo.Client, pipeline Pipeline, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		client:   client,
		pipeline: pipeline,
		timeout:  DefaultProcessTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls until the context is cancelled. Poll errors are logged and
// polling continues; only context cancellation stops the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if c.logger != nil {
				c.logger.Error("fetch error", "topic", topic, "partition", partition, "error", err)
			}
		})
		fetches.EachRecord(func(record *kgo.Record) {
			c.handleRecord(ctx, record.Value)
		})
	}
}

// handleRecord decodes one entity event and runs it through dedupe and the
// pipeline. Malformed events are logged and skipped; they are not worth a
// consumer crash loop.
func (c *Consumer) handleRecord(ctx context.Context, value []byte) {
	var e entity.Entity
	if err := json.Unmarshal(value, &e); err != nil {
		if c.logger != nil {
			c.logger.Warn("skipping malformed entity event", "error", err)
		}
		return
	}
	if err := e.Validate(); err != nil {
		if c.logger != nil {
			c.logger.Warn("skipping invalid entity event", "error", err)
		}
		return
	}

	if c.deduper != nil {
		won, err := c.deduper.Claim(ctx, e.TenantID, e.ID)
		if err != nil {
			// Dedupe outage: favor processing over skipping; the worst
			// case is a duplicate contribution, not a lost one.
			if c.logger != nil {
				c.logger.Warn("dedupe unavailable, processing anyway", "error", err)
			}
		} else if !won {
			return
		}
	}

	processCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if ok := c.pipeline.ProcessEntity(processCtx, &e); !ok && c.deduper != nil {
		// Failed or rejected contributions release their claim so a later
		// retry (or restored consent) is not suppressed by the window.
		if err := c.deduper.Release(ctx, e.TenantID, e.ID); err != nil && c.logger != nil {
			c.logger.Warn("dedupe release failed", "error", err)
		}
	}
}
