package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	cartesiaBaseURL  = "https://api.cartesia.ai"
	providerCartesia = "cartesia"
)

// Cartesia implements Provider for the Cartesia TTS API.
type Cartesia struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewCartesia creates a new Cartesia TTS provider. The voice defaults
// to sonic-english when none is configured.
func NewCartesia(opts ...Option) (*Cartesia, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = DefaultCartesiaVoice
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cartesiaBaseURL
	}

	return &Cartesia{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "tts.cartesia"),
		baseURL: baseURL,
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (c *Cartesia) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	payload := map[string]interface{}{
		"text":          text,
		"voice":         c.config.VoiceID,
		"output_format": cartesiaFormat(c.config.OutputFormat),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerCartesia, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerCartesia, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, WrapError(providerCartesia, fmt.Errorf("synthesize request: %w", err))
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerCartesia, fmt.Errorf("read response: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerCartesia, ErrNoAudio)
	}

	format := c.outputFormat()

	c.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", c.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    format,
		Duration:  probeDuration(audio, format),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity and API key validity.
func (c *Cartesia) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/voices", nil)
	if err != nil {
		return WrapError(providerCartesia, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return WrapError(providerCartesia, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (c *Cartesia) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// parseError reads and parses an error response.
func (c *Cartesia) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error string `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerCartesia,
	}
}

// outputFormat returns the audio format configuration.
func (c *Cartesia) outputFormat() AudioFormat {
	return AudioFormat{
		Encoding:   c.config.OutputFormat,
		SampleRate: SampleRateFromEncoding(c.config.OutputFormat),
		Channels:   1,
		BitDepth:   16,
	}
}

// cartesiaFormat maps an Encoding to the API's output_format value.
func cartesiaFormat(enc Encoding) string {
	switch enc {
	case EncodingMP3:
		return "mp3"
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return "pcm"
	case EncodingULaw:
		return "ulaw"
	default:
		return "mp3"
	}
}

// Verify Cartesia implements Provider at compile time.
var _ Provider = (*Cartesia)(nil)
