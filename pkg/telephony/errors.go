package telephony

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoAccountSID is returned when the account SID is missing.
	ErrNoAccountSID = errors.New("telephony: account SID required")

	// ErrNoAuthToken is returned when the auth token is missing.
	ErrNoAuthToken = errors.New("telephony: auth token required")

	// ErrNoFromNumber is returned when the originating number is missing.
	ErrNoFromNumber = errors.New("telephony: from number required")

	// ErrNoVoiceURL is returned when the voice webhook URL is missing.
	ErrNoVoiceURL = errors.New("telephony: voice webhook URL required")

	// ErrDownstreamUnavailable is returned when the provider rejects or
	// fails an outbound call request.
	ErrDownstreamUnavailable = errors.New("telephony: provider unavailable")

	// ErrNoRecordingURL is returned when Fetch is called with an empty reference.
	ErrNoRecordingURL = errors.New("telephony: recording URL required")

	// ErrEmptyRecording is returned when the provider serves a zero-byte recording.
	ErrEmptyRecording = errors.New("telephony: recording is empty")
)

// APIError represents an error response from the telephony provider.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Code is the provider's numeric error code (if provided).
	Code int

	// Provider identifies which provider returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("telephony [%s]: API error %d (code %d): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("telephony [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsNotFound returns true if the resource was not found (HTTP 404).
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized returns true if this is an authentication error (HTTP 401).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("telephony [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
