package dialogue

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoModel is returned when the model name is missing.
	ErrNoModel = errors.New("dialogue: model required")

	// ErrNoTranscript is returned when Reply is called with no text.
	ErrNoTranscript = errors.New("dialogue: transcript required")

	// ErrEmptyCompletion is returned when the backend answers with no
	// usable reply text.
	ErrEmptyCompletion = errors.New("dialogue: backend returned no reply")

	// ErrUnknownProvider is returned for an unrecognized provider name.
	ErrUnknownProvider = errors.New("dialogue: unknown provider")
)

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("dialogue [%s]: %v", e.Provider, e.Err)
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
