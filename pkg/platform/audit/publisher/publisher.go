// Package publisher emits pipeline audit events to a store, either
// synchronously or through a bounded async buffer. The async mode favors
// pipeline throughput over delivery: when the buffer is full the event is
// dropped and counted, never blocking a contribution.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "datamesh/pkg/platform/audit"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox   chan audit.Event
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission through a buffer of the
// given size. Close drains the buffer before returning.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithLogger sets a logger for drop and persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher writing to the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records an audit event. Sets Timestamp and Category when unset.
// In async mode a full buffer drops the event; in sync mode persistence
// errors surface to the caller.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		if p.logger != nil {
			p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
		}
		return nil
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Warn("audit append failed", "action", event.Action, "error", err)
		}
	}
}

// Close stops the async worker after draining buffered events. Safe to
// call more than once.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
	<-p.done
}
