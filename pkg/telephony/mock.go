package telephony

import (
	"context"
	"sync"
)

// MockDialer implements Dialer for testing.
type MockDialer struct {
	// PlaceCallFunc is called when PlaceCall is invoked.
	// If nil, returns a fixed CallRef.
	PlaceCallFunc func(ctx context.Context, to string) (*CallRef, error)

	mu    sync.Mutex
	calls []string
}

// PlaceCall calls PlaceCallFunc and records the dialed number.
func (m *MockDialer) PlaceCall(ctx context.Context, to string) (*CallRef, error) {
	m.mu.Lock()
	m.calls = append(m.calls, to)
	m.mu.Unlock()

	if m.PlaceCallFunc != nil {
		return m.PlaceCallFunc(ctx, to)
	}
	return &CallRef{SID: "CA0000000000000000000000000000000000", To: to, Status: "queued"}, nil
}

// Close implements Dialer.
func (m *MockDialer) Close() error { return nil }

// Dialed returns every number passed to PlaceCall.
func (m *MockDialer) Dialed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockFetcher implements RecordingFetcher for testing.
type MockFetcher struct {
	// FetchFunc is called when Fetch is invoked.
	// If nil, returns a small fixed WAV payload.
	FetchFunc func(ctx context.Context, recordingURL string) ([]byte, error)

	mu   sync.Mutex
	urls []string
}

// Fetch calls FetchFunc and records the requested URL.
func (m *MockFetcher) Fetch(ctx context.Context, recordingURL string) ([]byte, error) {
	m.mu.Lock()
	m.urls = append(m.urls, recordingURL)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, recordingURL)
	}
	return []byte("RIFF....WAVEfmt "), nil
}

// Close implements RecordingFetcher.
func (m *MockFetcher) Close() error { return nil }

// Fetched returns every URL passed to Fetch.
func (m *MockFetcher) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.urls))
	copy(out, m.urls)
	return out
}

// FetchCount returns how many times Fetch was called.
func (m *MockFetcher) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}

// Verify mocks implement their interfaces at compile time.
var (
	_ Dialer           = (*MockDialer)(nil)
	_ RecordingFetcher = (*MockFetcher)(nil)
)
