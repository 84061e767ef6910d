// Package dialogue generates the agent's conversational replies. A
// Provider takes one caller utterance and returns one short reply,
// shaped by a system directive; the package holds no conversation
// history between calls.
//
// The implementation is backed by any-llm-go, so the same adapter
// serves Groq, OpenAI, or any other backend that library supports.
package dialogue

import "context"

// Provider generates a reply to a transcript.
type Provider interface {
	// Reply produces the agent's reply to the caller's words. One
	// attempt, bounded by ctx; never retried internally.
	Reply(ctx context.Context, transcript string) (*Reply, error)

	// Close releases resources held by the provider.
	Close() error
}

// Reply is a generated agent reply.
type Reply struct {
	// Text is the reply to speak to the caller.
	Text string

	// Model and Provider identify what produced the reply.
	Model    string
	Provider string

	// Usage reports token accounting when the backend provides it.
	Usage Usage

	// LatencyMs is the request round-trip time.
	LatencyMs int64
}

// Usage is the backend's token accounting for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
