// Package stt transcribes short recorded clips to text.
package stt

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnconfigured is returned when no credentials are available.
	ErrUnconfigured = errors.New("stt: transcription not configured")

	// ErrFailed is returned when the transcription service errors.
	ErrFailed = errors.New("stt: transcription failed")
)

// Transcriber turns a WAV clip into text. An empty string with a nil error
// means nothing intelligible was said.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)

	// Configured reports whether the transcriber has credentials.
	Configured() bool
}

// APIError is an error response from a speech service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("stt: API error %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrFailed.
func (e *APIError) Unwrap() error {
	return ErrFailed
}
