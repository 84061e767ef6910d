// Package telephony is the boundary to the telephony provider. It
// covers the two operations the agent needs from the phone network:
// placing an outbound call and fetching the recorded audio of a
// completed caller utterance. Webhook parsing lives in pkg/web; this
// package only talks outward.
package telephony

import "context"

// CallRef identifies an outbound call accepted by the provider.
type CallRef struct {
	// SID is the provider's unique call identifier.
	SID string

	// To and From are the dialed and originating numbers.
	To   string
	From string

	// Status is the provider's initial call status (e.g. "queued").
	Status string
}

// Dialer places outbound calls.
type Dialer interface {
	// PlaceCall asks the provider to dial the number and drive the
	// call through the configured voice webhook.
	PlaceCall(ctx context.Context, to string) (*CallRef, error)

	// Close releases resources held by the dialer.
	Close() error
}

// RecordingFetcher downloads recorded caller audio.
type RecordingFetcher interface {
	// Fetch retrieves the recording at the given reference as WAV
	// bytes. The reference comes verbatim from the webhook event.
	Fetch(ctx context.Context, recordingURL string) ([]byte, error)

	// Close releases resources held by the fetcher.
	Close() error
}
