package stt_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veldtlabs/dialtone/pkg/stt"
)

var wavBytes = []byte("RIFFxxxxWAVEfmt data....")

func TestDeepgramTranscribe(t *testing.T) {
	var gotAuth, gotContentType, gotModel, gotPunctuate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotModel = r.URL.Query().Get("model")
		gotPunctuate = r.URL.Query().Get("punctuate")
		w.Write([]byte(`{
			"results": {"channels": [{"alternatives": [
				{"transcript": "what is the weather today", "confidence": 0.97}
			]}]}
		}`))
	}))
	defer srv.Close()

	p, err := stt.NewDeepgram(stt.WithAPIKey("dg-key"), stt.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewDeepgram: %v", err)
	}
	defer p.Close()

	result, err := p.Transcribe(context.Background(), wavBytes)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if result.Text != "what is the weather today" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Confidence != 0.97 {
		t.Errorf("Confidence = %v, want 0.97", result.Confidence)
	}
	if result.Empty() {
		t.Error("Empty() = true for a non-empty transcript")
	}
	if gotAuth != "Token dg-key" {
		t.Errorf("Authorization = %q, want Token auth", gotAuth)
	}
	if gotContentType != "audio/wav" {
		t.Errorf("Content-Type = %q, want audio/wav", gotContentType)
	}
	if gotModel != "general" || gotPunctuate != "true" {
		t.Errorf("query model=%q punctuate=%q", gotModel, gotPunctuate)
	}
}

func TestDeepgramEmptyResults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no channels", `{"results": {"channels": []}}`},
		{"no alternatives", `{"results": {"channels": [{"alternatives": []}]}}`},
		{"empty transcript", `{"results": {"channels": [{"alternatives": [{"transcript": "", "confidence": 0}]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := stt.NewDeepgram(stt.WithAPIKey("dg-key"), stt.WithBaseURL(srv.URL))
			if err != nil {
				t.Fatalf("NewDeepgram: %v", err)
			}
			defer p.Close()

			result, err := p.Transcribe(context.Background(), wavBytes)
			if err != nil {
				t.Fatalf("Transcribe should not error on empty results: %v", err)
			}
			if !result.Empty() {
				t.Errorf("Empty() = false, Text = %q", result.Text)
			}
		})
	}
}

func TestDeepgramRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"err_code": "Bad Request", "err_msg": "unsupported encoding"}`))
	}))
	defer srv.Close()

	p, err := stt.NewDeepgram(stt.WithAPIKey("dg-key"), stt.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewDeepgram: %v", err)
	}
	defer p.Close()

	_, err = p.Transcribe(context.Background(), wavBytes)
	var apiErr *stt.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T, want *APIError", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Message != "unsupported encoding" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestDeepgramNoAudio(t *testing.T) {
	p, err := stt.NewDeepgram(stt.WithAPIKey("dg-key"))
	if err != nil {
		t.Fatalf("NewDeepgram: %v", err)
	}
	defer p.Close()

	if _, err := p.Transcribe(context.Background(), nil); !errors.Is(err, stt.ErrNoAudio) {
		t.Errorf("Transcribe(nil) err = %v, want ErrNoAudio", err)
	}
}

func TestWhisperTranscribe(t *testing.T) {
	var gotAuth, gotModelField, gotFileName string
	var gotFileBytes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("request is not multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotModelField = r.FormValue("model")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFileName = header.Filename
		data, _ := io.ReadAll(file)
		gotFileBytes = len(data)
		w.Write([]byte(`{"text": "turn on the kitchen lights"}`))
	}))
	defer srv.Close()

	p, err := stt.NewWhisper(stt.WithAPIKey("oa-key"), stt.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewWhisper: %v", err)
	}
	defer p.Close()

	result, err := p.Transcribe(context.Background(), wavBytes)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if result.Text != "turn on the kitchen lights" {
		t.Errorf("Text = %q", result.Text)
	}
	if gotAuth != "Bearer oa-key" {
		t.Errorf("Authorization = %q, want Bearer auth", gotAuth)
	}
	if gotModelField != stt.WhisperModel {
		t.Errorf("model field = %q, want %q", gotModelField, stt.WhisperModel)
	}
	if gotFileName != "audio.wav" || gotFileBytes != len(wavBytes) {
		t.Errorf("file = %q (%d bytes), want audio.wav with %d bytes", gotFileName, gotFileBytes, len(wavBytes))
	}
}

func TestWhisperEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p, err := stt.NewWhisper(stt.WithAPIKey("oa-key"), stt.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewWhisper: %v", err)
	}
	defer p.Close()

	result, err := p.Transcribe(context.Background(), wavBytes)
	if err != nil {
		t.Fatalf("Transcribe should not error on a missing text field: %v", err)
	}
	if !result.Empty() {
		t.Errorf("Empty() = false, Text = %q", result.Text)
	}
}

func TestWhisperRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer srv.Close()

	p, err := stt.NewWhisper(stt.WithAPIKey("bad-key"), stt.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewWhisper: %v", err)
	}
	defer p.Close()

	_, err = p.Transcribe(context.Background(), wavBytes)
	var apiErr *stt.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T, want *APIError", err)
	}
	if !apiErr.IsUnauthorized() || apiErr.Code != "invalid_api_key" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestNewByName(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  error
	}{
		{"deepgram", "deepgram", nil},
		{"whisper", "whisper", nil},
		{"unknown", "dictation-pool", stt.ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := stt.New(tt.provider, stt.WithAPIKey("key"))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New(%q) err = %v, want %v", tt.provider, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q): %v", tt.provider, err)
			}
			p.Close()
		})
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		if _, err := stt.NewDeepgram(); !errors.Is(err, stt.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("options applied", func(t *testing.T) {
		cfg := stt.DefaultConfig()
		cfg.Apply(
			stt.WithAPIKey("k"),
			stt.WithModel("nova-2"),
			stt.WithLanguage("de"),
			stt.WithTimeout(3*time.Second),
		)
		if cfg.Model != "nova-2" || cfg.Language != "de" || cfg.Timeout != 3*time.Second {
			t.Errorf("config = %+v", cfg)
		}
	})
}

func TestMockProvider(t *testing.T) {
	mock := stt.NewMock()
	ctx := context.Background()

	t.Run("Transcribe returns transcript", func(t *testing.T) {
		result, err := mock.Transcribe(ctx, wavBytes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Empty() {
			t.Error("expected a transcript")
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		if mock.CallCount("Transcribe") != 1 {
			t.Errorf("expected 1 Transcribe call, got %d", mock.CallCount("Transcribe"))
		}
		calls := mock.Calls()
		if len(calls) != 1 || calls[0].AudioBytes != len(wavBytes) {
			t.Errorf("calls = %+v", calls)
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("stt offline")
	mock := stt.WithError(testErr)

	if _, err := mock.Transcribe(context.Background(), wavBytes); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if err := mock.Health(context.Background()); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
}

func TestProviderError(t *testing.T) {
	inner := errors.New("connection refused")
	err := stt.WrapError("deepgram", inner)

	if err.Error() != "stt [deepgram]: connection refused" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	var pe *stt.ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("expected ProviderError")
	}
	if pe.Provider != "deepgram" {
		t.Errorf("expected provider deepgram, got %s", pe.Provider)
	}
	if !errors.Is(err, inner) {
		t.Error("expected wrapped error to match with errors.Is")
	}
}
