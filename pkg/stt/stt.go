// Package stt provides speech-to-text. It converts recorded caller
// audio (WAV) into a transcript through pluggable provider adapters.
//
// An empty transcript is a valid result, not an error: silence and
// unintelligible audio come back as Result{Text: ""} so callers can
// treat "nothing was said" uniformly. Errors are reserved for transport
// and backend failures.
package stt

import (
	"context"
	"fmt"
)

// Provider converts audio to text.
type Provider interface {
	// Transcribe converts WAV audio bytes to a transcript. One
	// attempt, bounded by ctx; never retried internally.
	Transcribe(ctx context.Context, audio []byte) (*Result, error)

	// Health checks API connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases resources held by the provider.
	Close() error
}

// Result is a completed transcription.
type Result struct {
	// Text is the transcript. Empty means the provider heard nothing
	// usable.
	Text string

	// Confidence is the provider's confidence in the transcript,
	// 0 when the provider does not report one.
	Confidence float64

	// Provider identifies which backend produced the result.
	Provider string

	// LatencyMs is the request round-trip time.
	LatencyMs int64
}

// Empty reports whether the transcription produced no usable text.
func (r *Result) Empty() bool {
	return r == nil || r.Text == ""
}

// New constructs a provider by name. Known names: "deepgram", "whisper".
func New(name string, opts ...Option) (Provider, error) {
	switch name {
	case "deepgram":
		return NewDeepgram(opts...)
	case "whisper":
		return NewWhisper(opts...)
	default:
		return nil, fmt.Errorf("stt: unknown provider %q: %w", name, ErrUnknownProvider)
	}
}
