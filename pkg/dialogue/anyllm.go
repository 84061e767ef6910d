package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"
)

// AnyLLM implements Provider over an any-llm-go backend.
type AnyLLM struct {
	backend anyllmlib.Provider
	config  *Config
	logger  *slog.Logger
	name    string
}

// New constructs a provider by backend name. Known names: "groq",
// "openai". When the config carries no API key the backend library
// reads its own environment variable (GROQ_API_KEY, OPENAI_API_KEY).
func New(name string, opts ...Option) (*AnyLLM, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var libOpts []anyllmlib.Option
	if cfg.APIKey != "" {
		libOpts = append(libOpts, anyllmlib.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		libOpts = append(libOpts, anyllmlib.WithBaseURL(cfg.BaseURL))
	}

	backend, err := createBackend(name, libOpts...)
	if err != nil {
		return nil, err
	}

	return &AnyLLM{
		backend: backend,
		config:  cfg,
		logger:  cfg.Logger.With("component", "dialogue."+name),
		name:    name,
	}, nil
}

// createBackend builds the any-llm-go provider for the given name.
func createBackend(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(name) {
	case "groq":
		return groq.New(opts...)
	case "openai":
		return anyllmoai.New(opts...)
	default:
		return nil, fmt.Errorf("dialogue: %q: %w", name, ErrUnknownProvider)
	}
}

// Reply sends the system directive plus the transcript as a two-message
// completion and returns the first choice.
func (a *AnyLLM) Reply(ctx context.Context, transcript string) (*Reply, error) {
	start := time.Now()

	if strings.TrimSpace(transcript) == "" {
		return nil, ErrNoTranscript
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	messages := []anyllmlib.Message{
		{Role: anyllmlib.RoleSystem, Content: a.config.SystemPrompt},
		{Role: anyllmlib.RoleUser, Content: transcript},
	}

	params := anyllmlib.CompletionParams{
		Model:    a.config.Model,
		Messages: messages,
	}
	if a.config.Temperature != 0 {
		t := a.config.Temperature
		params.Temperature = &t
	}
	if a.config.MaxTokens > 0 {
		mt := a.config.MaxTokens
		params.MaxTokens = &mt
	}

	resp, err := a.backend.Completion(ctx, params)
	if err != nil {
		return nil, WrapError(a.name, fmt.Errorf("completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, WrapError(a.name, ErrEmptyCompletion)
	}

	text := resp.Choices[0].Message.ContentString()
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(a.name, ErrEmptyCompletion)
	}

	latency := time.Since(start).Milliseconds()

	reply := &Reply{
		Text:      text,
		Model:     a.config.Model,
		Provider:  a.name,
		LatencyMs: latency,
	}
	if resp.Usage != nil {
		reply.Usage = Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	a.logger.Debug("generated reply",
		"transcript_chars", len(transcript),
		"reply_chars", len(reply.Text),
		"latency_ms", latency,
		"model", a.config.Model,
		"total_tokens", reply.Usage.TotalTokens,
	)
	return reply, nil
}

// Close releases resources held by the provider.
func (a *AnyLLM) Close() error {
	return nil
}

// Verify AnyLLM implements Provider at compile time.
var _ Provider = (*AnyLLM)(nil)
