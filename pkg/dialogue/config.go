package dialogue

import (
	"log/slog"
	"time"
)

// Config holds dialogue provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// APIKey authenticates against the backend. When empty the
	// backend library falls back to its own environment variable.
	APIKey string

	// BaseURL overrides the backend endpoint (tests, proxies).
	BaseURL string

	// Model names the completion model.
	Model string

	// SystemPrompt steers the agent's persona and reply length.
	SystemPrompt string

	// Sampling controls. MaxTokens caps reply length so answers stay
	// speakable; phone replies should be a sentence or two.
	Temperature float64
	MaxTokens   int

	// Timeout bounds each completion request.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring dialogue providers.
type Option func(*Config)

// WithAPIKey sets the API key for the backend.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default backend URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithSystemPrompt sets the system directive.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) {
		c.SystemPrompt = prompt
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithTimeout sets the completion request timeout.
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
		Model:        "mixtral-8x7b-32768",
		SystemPrompt: "You are a helpful voice AI assistant.",
		Temperature:  0.7,
		MaxTokens:    150,
		Timeout:      15 * time.Second,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Model == "" {
		return ErrNoModel
	}
	return nil
}
