package telephony

import (
	"log/slog"
	"time"
)

// Config holds telephony provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	AccountSID string
	AuthToken  string

	// FromNumber is the E.164 number outbound calls originate from.
	FromNumber string

	// VoiceURL is the public webhook the provider requests when an
	// outbound call is answered.
	VoiceURL string

	// BaseURL overrides the provider API endpoint (tests).
	BaseURL string

	// Timeout bounds each recording download.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring telephony providers.
type Option func(*Config)

// WithCredentials sets the account SID and auth token.
func WithCredentials(accountSID, authToken string) Option {
	return func(c *Config) {
		c.AccountSID = accountSID
		c.AuthToken = authToken
	}
}

// WithFromNumber sets the originating number for outbound calls.
func WithFromNumber(number string) Option {
	return func(c *Config) {
		c.FromNumber = number
	}
}

// WithVoiceURL sets the answered-call webhook URL.
func WithVoiceURL(url string) Option {
	return func(c *Config) {
		c.VoiceURL = url
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithTimeout sets the recording download timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Logger:  slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that credentials are present.
func (c *Config) Validate() error {
	if c.AccountSID == "" {
		return ErrNoAccountSID
	}
	if c.AuthToken == "" {
		return ErrNoAuthToken
	}
	return nil
}

// ValidateForDialing checks everything outbound calls additionally need.
func (c *Config) ValidateForDialing() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.FromNumber == "" {
		return ErrNoFromNumber
	}
	if c.VoiceURL == "" {
		return ErrNoVoiceURL
	}
	return nil
}
