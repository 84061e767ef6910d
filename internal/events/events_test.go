package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestTurnEventJSONShape(t *testing.T) {
	ev := TurnEvent{
		CallSID:    "CA1234",
		Transcript: "what is the weather",
		Reply:      "It is sunny today.",
		Outcome:    "ok",
		OccurredAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"call_sid", "transcript", "reply", "outcome", "occurred_at"} {
		if _, ok := got[key]; !ok {
			t.Errorf("payload missing %q field", key)
		}
	}
	if got["call_sid"] != "CA1234" {
		t.Errorf("call_sid = %v, want CA1234", got["call_sid"])
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishTurn(context.Background(), TurnEvent{}); err != nil {
		t.Errorf("Nop.PublishTurn: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Nop.Close: %v", err)
	}
}

func TestMockRecordsEvents(t *testing.T) {
	m := &Mock{}
	_ = m.PublishTurn(context.Background(), TurnEvent{CallSID: "CA1"})
	_ = m.PublishTurn(context.Background(), TurnEvent{CallSID: "CA2"})

	evs := m.Events()
	if len(evs) != 2 {
		t.Fatalf("recorded %d events, want 2", len(evs))
	}
	if evs[1].CallSID != "CA2" {
		t.Errorf("second event CallSID = %q, want CA2", evs[1].CallSID)
	}
}

func TestMockPublishFunc(t *testing.T) {
	wantErr := errors.New("broker down")
	m := &Mock{PublishFunc: func(context.Context, TurnEvent) error { return wantErr }}
	if err := m.PublishTurn(context.Background(), TurnEvent{}); !errors.Is(err, wantErr) {
		t.Errorf("PublishTurn err = %v, want %v", err, wantErr)
	}
}
