// Package publisher emits audit events to a Store, synchronously by default
// or through a buffered async channel when callers must not block on the
// audit write path.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "cetrack/pkg/platform/audit"
	"cetrack/pkg/requestcontext"
)

// Publisher writes audit events to a store. In async mode events are
// buffered and written by a background goroutine; Close drains the buffer.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for async write failures, which cannot be
// returned to the emitting caller.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithAsyncBuffer enables async mode with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) { p.buffer = make(chan audit.Event, size) }
}

// NewPublisher creates a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an audit event. Sync mode blocks until the store write
// completes so callers can fail closed; async mode enqueues and returns.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if p.buffer != nil {
		p.buffer <- event
		return nil
	}
	return p.store.Append(ctx, event)
}

// List returns the audit trail for one entity.
func (p *Publisher) List(ctx context.Context, entityID string) ([]audit.Event, error) {
	return p.store.ListByEntity(ctx, entityID)
}

// Close drains any buffered events and stops the background writer.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		// Background context: the originating request may be gone.
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("async audit write failed",
				"action", event.Action,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
	}
}
