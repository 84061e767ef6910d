package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestTwilio(t *testing.T, opts ...Option) *Twilio {
	t.Helper()
	base := []Option{WithCredentials("AC123", "token")}
	tw, err := NewTwilio(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewTwilio: %v", err)
	}
	return tw
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name:    "missing account SID",
			opts:    nil,
			wantErr: ErrNoAccountSID,
		},
		{
			name:    "missing auth token",
			opts:    []Option{WithCredentials("AC123", "")},
			wantErr: ErrNoAuthToken,
		},
		{
			name: "valid credentials",
			opts: []Option{WithCredentials("AC123", "token")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Apply(tt.opts...)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchRecording(t *testing.T) {
	var gotPath, gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "audio/x-wav")
		w.Write([]byte("RIFFxxxxWAVEfmt data"))
	}))
	defer srv.Close()

	tw := newTestTwilio(t)
	audio, err := tw.Fetch(context.Background(), srv.URL+"/Recordings/RE123")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !strings.HasSuffix(gotPath, "/Recordings/RE123.wav") {
		t.Errorf("requested path %q, want .wav suffix on the recording reference", gotPath)
	}
	if gotUser != "AC123" || gotPass != "token" {
		t.Errorf("basic auth = %q/%q, want account credentials", gotUser, gotPass)
	}
	if len(audio) == 0 {
		t.Error("Fetch returned no audio bytes")
	}
}

func TestFetchRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"code":    20404,
			"message": "The requested resource was not found",
		})
	}))
	defer srv.Close()

	tw := newTestTwilio(t)
	_, err := tw.Fetch(context.Background(), srv.URL+"/Recordings/RE404")
	if err == nil {
		t.Fatal("Fetch succeeded on 404")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T, want *APIError", err)
	}
	if apiErr.StatusCode != 404 || apiErr.Code != 20404 {
		t.Errorf("APIError = %+v, want status 404 code 20404", apiErr)
	}
	if !apiErr.IsNotFound() {
		t.Error("IsNotFound() = false")
	}
}

func TestFetchEmptyRecording(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tw := newTestTwilio(t)
	_, err := tw.Fetch(context.Background(), srv.URL+"/Recordings/RE0")
	if !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("Fetch err = %v, want ErrEmptyRecording", err)
	}
}

func TestFetchMissingURL(t *testing.T) {
	tw := newTestTwilio(t)
	_, err := tw.Fetch(context.Background(), "")
	if !errors.Is(err, ErrNoRecordingURL) {
		t.Errorf("Fetch err = %v, want ErrNoRecordingURL", err)
	}
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	tw := newTestTwilio(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tw.Fetch(ctx, srv.URL+"/Recordings/REslow")
	if err == nil {
		t.Fatal("Fetch succeeded past its deadline")
	}
	if time.Since(start) > time.Second {
		t.Error("Fetch did not abort at the context deadline")
	}
}

func TestPlaceCallRequiresDialingConfig(t *testing.T) {
	t.Run("missing from number", func(t *testing.T) {
		tw := newTestTwilio(t)
		_, err := tw.PlaceCall(context.Background(), "+15550123")
		if !errors.Is(err, ErrNoFromNumber) {
			t.Errorf("PlaceCall err = %v, want ErrNoFromNumber", err)
		}
	})

	t.Run("missing voice URL", func(t *testing.T) {
		tw := newTestTwilio(t, WithFromNumber("+15550100"))
		_, err := tw.PlaceCall(context.Background(), "+15550123")
		if !errors.Is(err, ErrNoVoiceURL) {
			t.Errorf("PlaceCall err = %v, want ErrNoVoiceURL", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		tw := newTestTwilio(t,
			WithFromNumber("+15550100"),
			WithVoiceURL("https://agent.example.com/voice"),
		)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := tw.PlaceCall(ctx, "+15550123"); err == nil {
			t.Error("PlaceCall succeeded with canceled context")
		}
	})
}

func TestHealth(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"active"}`))
	}))
	defer srv.Close()

	tw := newTestTwilio(t, WithBaseURL(srv.URL))
	if err := tw.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if gotPath != "/2010-04-01/Accounts/AC123.json" {
		t.Errorf("health path = %q", gotPath)
	}
}

func TestMockDialerRecordsCalls(t *testing.T) {
	m := &MockDialer{}
	ref, err := m.PlaceCall(context.Background(), "+15550123")
	if err != nil {
		t.Fatalf("PlaceCall: %v", err)
	}
	if ref.SID == "" || ref.To != "+15550123" {
		t.Errorf("CallRef = %+v", ref)
	}
	if dialed := m.Dialed(); len(dialed) != 1 || dialed[0] != "+15550123" {
		t.Errorf("Dialed() = %v", dialed)
	}
}

func TestMockFetcherError(t *testing.T) {
	wantErr := errors.New("network down")
	m := &MockFetcher{FetchFunc: func(context.Context, string) ([]byte, error) {
		return nil, WrapError("mock", wantErr)
	}}
	_, err := m.Fetch(context.Background(), "https://x/RE1")
	if !errors.Is(err, wantErr) {
		t.Errorf("Fetch err = %v, want wrapped %v", err, wantErr)
	}
	if m.FetchCount() != 1 {
		t.Errorf("FetchCount = %d, want 1", m.FetchCount())
	}
}
