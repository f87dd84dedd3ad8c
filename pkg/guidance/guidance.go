// Package guidance decides which navigation cue, if any, a scene warrants.
//
// Decide is pure: given the same scene, previous event, mode and timestamp it
// always returns the same result. Cadence across the output channel is the
// concern of package speechgate, not this one.
package guidance

import (
	"time"

	"github.com/teslashibe/go-soundscape/pkg/scene"
)

// MinCueInterval is the base window during which an identical cue is not repeated.
const MinCueInterval = 2500 * time.Millisecond

// SafeModeFactor widens MinCueInterval when safe mode is on.
const SafeModeFactor = 1.5

// Haptic is the vibration pattern accompanying a cue.
type Haptic string

const (
	HapticShort Haptic = "short"
	HapticLong  Haptic = "long"
	HapticNone  Haptic = "none"
)

// Event is one emitted cue.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Haptic    Haptic    `json:"haptic"`
}

// MinInterval returns the debounce window for the given mode.
func MinInterval(safeMode bool) time.Duration {
	if safeMode {
		return time.Duration(float64(MinCueInterval) * SafeModeFactor)
	}
	return MinCueInterval
}

// Decide returns the cue for s, or nil when nothing should be said.
//
// Hazards are checked in priority order: obstacle, curb, then crosswalk.
// A candidate whose text equals last.Text is suppressed while fewer than
// MinInterval(safeMode) has elapsed since last.Timestamp.
func Decide(s *scene.Description, last *Event, safeMode bool, now time.Time) *Event {
	c, ok := candidate(s)
	if !ok || c.Text == "" {
		return nil
	}
	if last != nil && last.Text == c.Text && now.Sub(last.Timestamp) < MinInterval(safeMode) {
		return nil
	}
	return &Event{Timestamp: now, Text: c.Text, Haptic: c.Haptic}
}

// Engine binds Decide to a clock.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an Engine. A nil clock uses time.Now.
func NewEngine(clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{now: clock}
}

// Decide calls Decide with the engine's current time.
func (e *Engine) Decide(s *scene.Description, last *Event, safeMode bool) *Event {
	return Decide(s, last, safeMode, e.now())
}
