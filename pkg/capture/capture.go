// Package capture runs the periodic capture, analyze and cue loop.
package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/go-soundscape/pkg/guidance"
	"github.com/teslashibe/go-soundscape/pkg/haptics"
	"github.com/teslashibe/go-soundscape/pkg/permissions"
	"github.com/teslashibe/go-soundscape/pkg/scene"
	"github.com/teslashibe/go-soundscape/pkg/settings"
	"github.com/teslashibe/go-soundscape/pkg/speechgate"
)

// Messages spoken or shown by the loop.
const (
	VisionOfflineMessage = "Vision offline, proceed with caution."
	DefaultNarration     = "Scene analysis complete. No detailed description available."
)

// State is the loop's health as seen by the presentation layer.
type State string

const (
	StateOffline   State = "offline"
	StateAnalyzing State = "analyzing"
	StateReady     State = "ready"
	StateError     State = "error"
)

// FrameSource captures a single JPEG frame.
// Implementations must be safe for concurrent use.
type FrameSource interface {
	Ready() bool
	Capture(ctx context.Context) ([]byte, error)
}

// Speaker starts speaking text and returns immediately.
// Failures are handled inside the implementation.
type Speaker interface {
	Say(text, voiceID string)
}

// ModeSource supplies the current assistant mode.
type ModeSource interface {
	Mode() settings.Mode
}

// Config wires the loop to its collaborators.
type Config struct {
	Frames      FrameSource
	Analyzer    scene.Analyzer
	Engine      *guidance.Engine
	Gate        *speechgate.Gate
	Speaker     Speaker
	Haptics     haptics.Pulser
	Permissions permissions.Provider
	Mode        ModeSource

	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *slog.Logger
}

// Status is a read-only snapshot of the loop.
type Status struct {
	State        State           `json:"state"`
	Active       bool            `json:"active"`
	LastMessage  string          `json:"last_message,omitempty"`
	Rate         float64         `json:"rate"`
	LastGuidance *guidance.Event `json:"last_guidance,omitempty"`
	Cycles       uint64          `json:"cycles"`
	Failures     uint64          `json:"failures"`
	SkippedTicks uint64          `json:"skipped_ticks"`
	LastLatency  Stages          `json:"last_latency"`
}
