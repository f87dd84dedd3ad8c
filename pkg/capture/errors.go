package capture

import "errors"

var (
	// ErrAnalyzerUnconfigured is returned when no scene analyzer is set.
	ErrAnalyzerUnconfigured = errors.New("capture: scene analyzer not configured")

	// ErrCameraNotReady is returned when the frame source cannot capture.
	ErrCameraNotReady = errors.New("capture: camera not ready")

	// ErrEmptyFrame is returned when the frame source yields no data.
	ErrEmptyFrame = errors.New("capture: empty frame")

	// ErrDescribeBusy is returned when a scene description is already running.
	ErrDescribeBusy = errors.New("capture: scene description in progress")
)
