// Package settings holds the assistant mode and persists it as YAML.
package settings

import (
	"encoding/json"
	"time"
)

// Capture interval bounds.
const (
	MinCaptureInterval     = 800 * time.Millisecond
	MaxCaptureInterval     = 3000 * time.Millisecond
	DefaultCaptureInterval = 1200 * time.Millisecond
	DefaultVoiceID         = "Rachel"
)

// Verbosity controls how much of a cue is spoken.
type Verbosity string

const (
	VerbosityNormal Verbosity = "normal"
	VerbosityBrief  Verbosity = "brief"
)

// Mode is the process-wide assistant configuration.
type Mode struct {
	CaptureInterval time.Duration
	SafeMode        bool
	VoiceID         string
	CueVerbosity    Verbosity
	VoiceMode       bool
}

// modeJSON is the wire form used by the control surface.
type modeJSON struct {
	CaptureIntervalMs int64     `json:"capture_interval_ms"`
	SafeMode          bool      `json:"safe_mode"`
	VoiceID           string    `json:"voice_id"`
	CueVerbosity      Verbosity `json:"cue_verbosity"`
	VoiceMode         bool      `json:"voice_mode"`
}

// MarshalJSON encodes the capture interval in milliseconds.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(modeJSON{
		CaptureIntervalMs: m.CaptureInterval.Milliseconds(),
		SafeMode:          m.SafeMode,
		VoiceID:           m.VoiceID,
		CueVerbosity:      m.CueVerbosity,
		VoiceMode:         m.VoiceMode,
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var w modeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Mode{
		CaptureInterval: time.Duration(w.CaptureIntervalMs) * time.Millisecond,
		SafeMode:        w.SafeMode,
		VoiceID:         w.VoiceID,
		CueVerbosity:    w.CueVerbosity,
		VoiceMode:       w.VoiceMode,
	}
	return nil
}

// Defaults returns the default mode.
func Defaults() Mode {
	return Mode{
		CaptureInterval: DefaultCaptureInterval,
		VoiceID:         DefaultVoiceID,
		CueVerbosity:    VerbosityNormal,
	}
}

// Normalize clamps the capture interval and fills empty fields from defaults.
func (m Mode) Normalize() Mode {
	d := Defaults()
	if m.CaptureInterval == 0 {
		m.CaptureInterval = d.CaptureInterval
	}
	m.CaptureInterval = ClampInterval(m.CaptureInterval)
	if m.VoiceID == "" {
		m.VoiceID = d.VoiceID
	}
	if m.CueVerbosity != VerbosityBrief {
		m.CueVerbosity = VerbosityNormal
	}
	return m
}

// ClampInterval bounds d to [MinCaptureInterval, MaxCaptureInterval].
func ClampInterval(d time.Duration) time.Duration {
	if d < MinCaptureInterval {
		return MinCaptureInterval
	}
	if d > MaxCaptureInterval {
		return MaxCaptureInterval
	}
	return d
}
