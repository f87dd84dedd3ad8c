package scene

import "errors"

var (
	// ErrVisionUnavailable is returned when the analyzer is unconfigured or
	// the remote call fails.
	ErrVisionUnavailable = errors.New("scene: vision unavailable")

	// ErrMalformed is returned when a model response cannot be decoded into
	// a complete Description.
	ErrMalformed = errors.New("scene: malformed description")
)
