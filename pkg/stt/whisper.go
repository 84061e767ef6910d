package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	openaiBaseURL   = "https://api.openai.com"
	providerWhisper = "whisper"

	// WhisperModel is the hosted transcription model.
	WhisperModel = "whisper-1"
)

// Whisper implements Provider for OpenAI's transcription API.
type Whisper struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewWhisper creates a new Whisper STT provider.
func NewWhisper(opts ...Option) (*Whisper, error) {
	cfg := DefaultConfig()
	cfg.Model = WhisperModel
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openaiBaseURL
	}

	return &Whisper{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "stt.whisper"),
		baseURL: baseURL,
	}, nil
}

// Transcribe uploads WAV audio as a multipart form and reads the text
// field of the response.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	start := time.Now()

	if len(audio) == 0 {
		return nil, ErrNoAudio
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("build form: %w", err))
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("write audio: %w", err))
	}
	if err := mw.WriteField("model", w.config.Model); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("write model field: %w", err))
	}
	if w.config.Language != "" {
		if err := mw.WriteField("language", w.config.Language); err != nil {
			return nil, WrapError(providerWhisper, fmt.Errorf("write language field: %w", err))
		}
	}
	if err := mw.Close(); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("close form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.baseURL+"/v1/audio/transcriptions", &buf)
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+w.config.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("transcribe request: %w", err))
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, w.parseError(resp)
	}

	var waResp struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&waResp); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("decode response: %w", err))
	}

	w.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(waResp.Text),
		"latency_ms", latency,
		"model", w.config.Model,
	)

	return &Result{
		Text:      waResp.Text,
		Provider:  providerWhisper,
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity and API key validity.
func (w *Whisper) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", w.baseURL+"/v1/models", nil)
	if err != nil {
		return WrapError(providerWhisper, err)
	}
	req.Header.Set("Authorization", "Bearer "+w.config.APIKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return WrapError(providerWhisper, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return w.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (w *Whisper) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

// parseError reads and parses an error response.
func (w *Whisper) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerWhisper,
	}
}

// Verify Whisper implements Provider at compile time.
var _ Provider = (*Whisper)(nil)
