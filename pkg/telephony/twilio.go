package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/veldtlabs/dialtone/internal/httpc"
)

const (
	twilioBaseURL  = "https://api.twilio.com"
	providerTwilio = "twilio"
)

// Twilio implements Dialer and RecordingFetcher against the Twilio API.
// Outbound calls go through the REST SDK; recording downloads are plain
// authenticated GETs because the webhook hands us a complete URL.
type Twilio struct {
	config *Config
	rest   *twilio.RestClient
	client *http.Client
	logger *slog.Logger
}

// NewTwilio creates a Twilio-backed telephony provider. Credentials are
// required; FromNumber and VoiceURL are checked when dialing.
func NewTwilio(opts ...Option) (*Twilio, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Twilio{
		config: cfg,
		rest:   rest,
		client: httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "telephony.twilio"),
	}, nil
}

// PlaceCall dials the number and points the call at the voice webhook.
// Provider rejection is surfaced as-is; the caller decides how to
// report it. Never retried.
func (t *Twilio) PlaceCall(ctx context.Context, to string) (*CallRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError(providerTwilio, err)
	}
	if err := t.config.ValidateForDialing(); err != nil {
		return nil, err
	}

	params := &api.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(t.config.FromNumber)
	params.SetUrl(t.config.VoiceURL)

	resp, err := t.rest.Api.CreateCall(params)
	if err != nil {
		return nil, WrapError(providerTwilio, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err))
	}

	ref := &CallRef{
		SID:    deref(resp.Sid),
		To:     deref(resp.To),
		From:   deref(resp.From),
		Status: deref(resp.Status),
	}

	t.logger.Info("placed outbound call",
		"sid", ref.SID,
		"to", ref.To,
		"status", ref.Status,
	)
	return ref, nil
}

// Fetch downloads the recording as WAV bytes. The provider serves the
// recording at the webhook URL plus a format extension.
func (t *Twilio) Fetch(ctx context.Context, recordingURL string) ([]byte, error) {
	start := time.Now()

	if recordingURL == "" {
		return nil, ErrNoRecordingURL
	}

	req, err := http.NewRequestWithContext(ctx, "GET", recordingURL+".wav", nil)
	if err != nil {
		return nil, WrapError(providerTwilio, fmt.Errorf("create request: %w", err))
	}
	req.SetBasicAuth(t.config.AccountSID, t.config.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, WrapError(providerTwilio, fmt.Errorf("fetch recording: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, t.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerTwilio, fmt.Errorf("read recording: %w", err))
	}
	if len(audio) == 0 {
		return nil, ErrEmptyRecording
	}

	t.logger.Debug("fetched recording",
		"bytes", len(audio),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return audio, nil
}

// Health checks API connectivity and credential validity.
func (t *Twilio) Health(ctx context.Context) error {
	base := t.config.BaseURL
	if base == "" {
		base = twilioBaseURL
	}

	url := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", base, t.config.AccountSID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return WrapError(providerTwilio, err)
	}
	req.SetBasicAuth(t.config.AccountSID, t.config.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return WrapError(providerTwilio, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return t.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (t *Twilio) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// parseError reads and parses a Twilio error response.
func (t *Twilio) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}

	message := string(body)
	code := 0
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		message = errResp.Message
		code = errResp.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerTwilio,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Verify Twilio implements both roles at compile time.
var (
	_ Dialer           = (*Twilio)(nil)
	_ RecordingFetcher = (*Twilio)(nil)
)
