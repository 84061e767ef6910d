package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	deepgramBaseURL  = "https://api.deepgram.com"
	providerDeepgram = "deepgram"
)

// Deepgram implements Provider for the Deepgram prerecorded API.
type Deepgram struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewDeepgram creates a new Deepgram STT provider.
func NewDeepgram(opts ...Option) (*Deepgram, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = deepgramBaseURL
	}

	return &Deepgram{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "stt.deepgram"),
		baseURL: baseURL,
	}, nil
}

// deepgramResponse mirrors the API envelope. Only transcript fields are
// read; everything else is ignored.
type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe sends WAV audio to the listen endpoint and extracts the
// first alternative of the first channel.
func (d *Deepgram) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	start := time.Now()

	if len(audio) == 0 {
		return nil, ErrNoAudio
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.baseURL+"/v1/listen", bytes.NewReader(audio))
	if err != nil {
		return nil, WrapError(providerDeepgram, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Authorization", "Token "+d.config.APIKey)
	req.Header.Set("Content-Type", "audio/wav")

	query := req.URL.Query()
	query.Add("model", d.config.Model)
	query.Add("language", d.config.Language)
	query.Add("punctuate", "true")
	query.Add("diarize", "false")
	req.URL.RawQuery = query.Encode()

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, WrapError(providerDeepgram, fmt.Errorf("transcribe request: %w", err))
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, d.parseError(resp)
	}

	var dgResp deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&dgResp); err != nil {
		return nil, WrapError(providerDeepgram, fmt.Errorf("decode response: %w", err))
	}

	result := &Result{
		Provider:  providerDeepgram,
		LatencyMs: latency,
	}

	// Silence comes back with the nesting intact but an empty
	// transcript, and occasionally with no channels at all. Both are
	// empty results, not errors.
	if len(dgResp.Results.Channels) > 0 && len(dgResp.Results.Channels[0].Alternatives) > 0 {
		alt := dgResp.Results.Channels[0].Alternatives[0]
		result.Text = alt.Transcript
		result.Confidence = alt.Confidence
	}

	d.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(result.Text),
		"confidence", result.Confidence,
		"latency_ms", latency,
		"model", d.config.Model,
	)
	return result, nil
}

// Health checks API connectivity and API key validity.
func (d *Deepgram) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", d.baseURL+"/v1/auth/token", nil)
	if err != nil {
		return WrapError(providerDeepgram, err)
	}
	req.Header.Set("Authorization", "Token "+d.config.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return WrapError(providerDeepgram, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return d.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (d *Deepgram) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

// parseError reads and parses an error response.
func (d *Deepgram) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		ErrCode string `json:"err_code"`
		ErrMsg  string `json:"err_msg"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.ErrMsg != "" {
		message = errResp.ErrMsg
		code = errResp.ErrCode
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerDeepgram,
	}
}

// Verify Deepgram implements Provider at compile time.
var _ Provider = (*Deepgram)(nil)
