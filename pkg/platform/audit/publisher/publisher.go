// Package publisher fans audit events into a Store, synchronously or through
// a bounded buffer drained by a background goroutine.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "xup/pkg/platform/audit"
)

// ErrBufferFull is returned by Emit when the async buffer cannot take more events.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher writes audit events to a Store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	buffer chan audit.Event

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

// WithLogger sets the logger used for store failures in async mode.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a Publisher. Without WithAsyncBuffer it is synchronous.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. Timestamp and Category are filled when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return p.store.Append(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// Close stops accepting buffered events and drains what is queued.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.buffer == nil {
			return
		}
		p.mu.Lock()
		p.closed = true
		close(p.buffer)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to append audit event",
				"error", err,
				"action", event.Action,
				"request_id", event.RequestID,
			)
		}
	}
}
