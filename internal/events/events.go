// Package events publishes per-turn conversation events to a message
// broker so downstream consumers (analytics, QA review, archival) can
// follow calls without sitting in the request path. Publishing is best
// effort: a broker outage never fails a turn.
package events

import (
	"context"
	"time"
)

// TurnEvent describes one completed conversation turn.
type TurnEvent struct {
	CallSID    string    `json:"call_sid"`
	Transcript string    `json:"transcript"`
	Reply      string    `json:"reply"`
	Outcome    string    `json:"outcome"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers turn events to a broker.
type Publisher interface {
	PublishTurn(ctx context.Context, ev TurnEvent) error
	Close() error
}

// Nop is the publisher used when no broker is configured.
type Nop struct{}

func (Nop) PublishTurn(context.Context, TurnEvent) error { return nil }
func (Nop) Close() error                                 { return nil }

var _ Publisher = Nop{}
