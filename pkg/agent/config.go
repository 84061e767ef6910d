package agent

import "time"

// Config shapes the conversation: what the agent says around the
// pipeline and how long each stage may take. Zero-valued text fields
// fall back to the defaults so the agent never speaks an empty string.
type Config struct {
	// Greeting is spoken when a call is answered.
	Greeting string

	// VoiceURL is the greet webhook path, used as the redirect target
	// when a turn has to start over.
	VoiceURL string

	// ProcessURL receives the recording-ready webhook after each
	// record directive.
	ProcessURL string

	// Record directive timing. MaxLength and Timeout are seconds.
	RecordMaxLength int
	RecordTimeout   int
	RecordPlayBeep  bool
	RecordTrim      string

	// RetryPrompt is spoken when the caller's utterance produced no
	// transcript.
	RetryPrompt string

	// DegradedReply replaces the dialogue backend's reply when it
	// fails; the conversation continues.
	DegradedReply string

	// ConnectionApology is spoken when the recording could not be
	// fetched. The turn is terminal after it.
	ConnectionApology string

	// Apology is the catch-all spoken by the fallback instruction when
	// a turn faults outside the pipeline's own degradation paths.
	Apology string

	// Per-stage deadlines. A stage that exceeds its deadline is
	// treated the same as a stage failure.
	FetchTimeout time.Duration
	STTTimeout   time.Duration
	ChatTimeout  time.Duration
	TTSTimeout   time.Duration
}

// DefaultConfig returns the conversation defaults.
func DefaultConfig() Config {
	return Config{
		Greeting:          "Hello! I am your AI assistant. How can I help you today?",
		VoiceURL:          "/voice",
		ProcessURL:        "/process",
		RecordMaxLength:   12,
		RecordTimeout:     2,
		RecordPlayBeep:    true,
		RetryPrompt:       "Sorry, I didn't catch that. Could you say it again?",
		DegradedReply:     "I am having trouble thinking right now.",
		ConnectionApology: "I'm having trouble with the connection. Please call back in a moment.",
		Apology:           "I'm sorry, something went wrong. Let's start over.",
		FetchTimeout:      10 * time.Second,
		STTTimeout:        15 * time.Second,
		ChatTimeout:       15 * time.Second,
		TTSTimeout:        20 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.Greeting == "" {
		c.Greeting = def.Greeting
	}
	if c.VoiceURL == "" {
		c.VoiceURL = def.VoiceURL
	}
	if c.ProcessURL == "" {
		c.ProcessURL = def.ProcessURL
	}
	if c.RecordMaxLength == 0 {
		c.RecordMaxLength = def.RecordMaxLength
	}
	if c.RecordTimeout == 0 {
		c.RecordTimeout = def.RecordTimeout
	}
	if c.RetryPrompt == "" {
		c.RetryPrompt = def.RetryPrompt
	}
	if c.DegradedReply == "" {
		c.DegradedReply = def.DegradedReply
	}
	if c.ConnectionApology == "" {
		c.ConnectionApology = def.ConnectionApology
	}
	if c.Apology == "" {
		c.Apology = def.Apology
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.STTTimeout == 0 {
		c.STTTimeout = def.STTTimeout
	}
	if c.ChatTimeout == 0 {
		c.ChatTimeout = def.ChatTimeout
	}
	if c.TTSTimeout == 0 {
		c.TTSTimeout = def.TTSTimeout
	}
	return c
}
