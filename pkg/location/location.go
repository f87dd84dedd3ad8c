// Package location answers "where am I" with a nearby intersection or
// street name.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-soundscape/pkg/permissions"
)

// UnknownPhrase is spoken whenever the location cannot be resolved.
const UnknownPhrase = "Location unknown."

var (
	// ErrUnconfigured is returned when the geocoder has no API key.
	ErrUnconfigured = errors.New("location: geocoder not configured")

	// ErrNoFix is returned when no position is available.
	ErrNoFix = errors.New("location: no position fix")

	// ErrNotFound is returned when no street or intersection matches.
	ErrNotFound = errors.New("location: no street found")
)

// APIError is a non-OK response from the geocoding service.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("location: geocoding %s (%d): %s", e.Status, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("location: geocoding %s (%d)", e.Status, e.StatusCode)
}

// Unwrap maps ZERO_RESULTS to ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == "ZERO_RESULTS" {
		return ErrNotFound
	}
	return nil
}

// Position is a WGS84 coordinate.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Intersection names two crossing streets.
type Intersection struct {
	Primary string `json:"primary"`
	Cross   string `json:"cross"`
}

// Result is a resolved location and the phrase to speak for it.
type Result struct {
	Phrase       string        `json:"phrase"`
	Intersection *Intersection `json:"intersection,omitempty"`
	Street       string        `json:"street,omitempty"`
}

// Unknown returns the result spoken when nothing was resolved.
func Unknown() Result {
	return Result{Phrase: UnknownPhrase}
}

// PositionSource supplies the current position.
type PositionSource interface {
	Position(ctx context.Context) (Position, error)
}

// Fixed is a PositionSource that always reports the same position.
type Fixed struct {
	Pos   Position
	Valid bool
}

// Position returns the fixed position, or ErrNoFix when unset.
func (f Fixed) Position(ctx context.Context) (Position, error) {
	if !f.Valid {
		return Position{}, ErrNoFix
	}
	return f.Pos, nil
}

// Geocoder turns a position into a Result.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, pos Position) (Result, error)
}

// Locator combines a position source and a geocoder.
type Locator struct {
	Positions   PositionSource
	Geocoder    Geocoder
	Permissions permissions.Provider
	Logger      *slog.Logger
}

// Locate resolves the current location.
func (l *Locator) Locate(ctx context.Context) (Result, error) {
	if l.Permissions != nil {
		if err := permissions.Require(l.Permissions, permissions.Location); err != nil {
			return Unknown(), err
		}
	}
	if l.Positions == nil {
		return Unknown(), ErrNoFix
	}
	if l.Geocoder == nil {
		return Unknown(), ErrUnconfigured
	}

	pos, err := l.Positions.Position(ctx)
	if err != nil {
		return Unknown(), err
	}
	res, err := l.Geocoder.ReverseGeocode(ctx, pos)
	if err != nil {
		return Unknown(), err
	}
	return res, nil
}

// WhereAmI returns the phrase for the current location. Failures are
// logged and yield UnknownPhrase.
func (l *Locator) WhereAmI(ctx context.Context) Result {
	res, err := l.Locate(ctx)
	if err != nil {
		logger := l.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("location lookup failed", "component", "location", "error", err)
		return Unknown()
	}
	return res
}
