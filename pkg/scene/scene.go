// Package scene defines the structured scene description produced by a
// vision model for one camera frame, and the contract for producing it.
package scene

import (
	"context"
)

// Alignment describes where the walker is pointed relative to a crosswalk.
type Alignment string

const (
	AlignCenter    Alignment = "center"
	AlignVeerLeft  Alignment = "veer_left"
	AlignVeerRight Alignment = "veer_right"
	AlignUnknown   Alignment = "unknown"
)

// Valid reports whether a is one of the known alignments.
func (a Alignment) Valid() bool {
	switch a {
	case AlignCenter, AlignVeerLeft, AlignVeerRight, AlignUnknown:
		return true
	}
	return false
}

// Signal is the state of a pedestrian crossing signal.
type Signal string

const (
	SignalWalk      Signal = "walk"
	SignalDontWalk  Signal = "dont_walk"
	SignalCountdown Signal = "countdown"
	SignalNone      Signal = "none"
)

// Valid reports whether s is one of the known signals.
func (s Signal) Valid() bool {
	switch s {
	case SignalWalk, SignalDontWalk, SignalCountdown, SignalNone:
		return true
	}
	return false
}

// Description is the result of one analysis cycle.
// It is never mutated after it is produced.
type Description struct {
	CrosswalkPresent bool      `json:"crosswalk_present"`
	Alignment        Alignment `json:"alignment"`
	CurbAhead        bool      `json:"curb_ahead"`
	ObstacleClose    bool      `json:"obstacle_close"`
	PedestrianSignal Signal    `json:"pedestrian_signal"`
	Confidence       float64   `json:"confidence"`
	Narration        string    `json:"narration,omitempty"`
}

// HasFeature reports whether the scene contains anything worth a cue.
func (d *Description) HasFeature() bool {
	return d != nil && (d.ObstacleClose || d.CurbAhead || d.CrosswalkPresent)
}

// Analyzer turns a JPEG frame into a Description.
// Failures wrap ErrVisionUnavailable.
type Analyzer interface {
	Analyze(ctx context.Context, jpeg []byte) (*Description, error)
}

// Placeholder is implemented by analyzers that may return canned scenes
// instead of looking at the frame.
type Placeholder interface {
	Placeholder() bool
}

// IsPlaceholder reports whether a stands in for a real vision service.
func IsPlaceholder(a Analyzer) bool {
	p, ok := a.(Placeholder)
	return ok && p.Placeholder()
}
