package dialogue

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// ReplyFunc is called when Reply is invoked.
	// If nil, echoes a fixed reply.
	ReplyFunc func(ctx context.Context, transcript string) (*Reply, error)

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method     string
	Transcript string
	Time       time.Time
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		ReplyFunc: func(ctx context.Context, transcript string) (*Reply, error) {
			return &Reply{
				Text:     "I can help with that.",
				Model:    "mock-model",
				Provider: "mock",
				Usage:    Usage{PromptTokens: 20, CompletionTokens: 6, TotalTokens: 26},
			}, nil
		},
	}
}

// Reply calls ReplyFunc and records the call.
func (m *Mock) Reply(ctx context.Context, transcript string) (*Reply, error) {
	m.recordCall("Reply", transcript)
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, transcript)
	}
	return &Reply{Text: "ok", Provider: "mock"}, nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// recordCall adds a call to the tracking list.
func (m *Mock) recordCall(method, transcript string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method:     method,
		Transcript: transcript,
		Time:       time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastTranscript returns the transcript of the most recent Reply call.
func (m *Mock) LastTranscript() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Method == "Reply" {
			return m.calls[i].Transcript
		}
	}
	return ""
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock whose calls always fail with err.
func WithError(err error) *Mock {
	return &Mock{
		ReplyFunc: func(ctx context.Context, transcript string) (*Reply, error) {
			return nil, err
		},
	}
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
