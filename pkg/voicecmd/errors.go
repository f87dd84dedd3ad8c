package voicecmd

import "errors"

var (
	// ErrBusy is returned when a recognition is already in flight.
	ErrBusy = errors.New("voicecmd: recognition already in progress")

	// ErrPermissionDenied is returned when microphone access is not granted.
	ErrPermissionDenied = errors.New("voicecmd: microphone permission denied")

	// ErrTranscriptionUnconfigured is returned when no transcriber is available.
	ErrTranscriptionUnconfigured = errors.New("voicecmd: transcription not configured")

	// ErrRecordingFailed is returned when no usable clip was captured.
	ErrRecordingFailed = errors.New("voicecmd: recording failed")

	// ErrTranscriptionFailed is returned when the transcriber errors.
	ErrTranscriptionFailed = errors.New("voicecmd: transcription failed")
)
