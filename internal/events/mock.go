package events

import (
	"context"
	"sync"
)

// Mock implements Publisher for testing, recording every event.
type Mock struct {
	// PublishFunc, when set, decides the result of PublishTurn.
	PublishFunc func(ctx context.Context, ev TurnEvent) error

	mu     sync.Mutex
	events []TurnEvent
	closed bool
}

// PublishTurn records the event and delegates to PublishFunc if set.
func (m *Mock) PublishTurn(ctx context.Context, ev TurnEvent) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, ev)
	}
	return nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a copy of every recorded event.
func (m *Mock) Events() []TurnEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TurnEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Publisher = (*Mock)(nil)
