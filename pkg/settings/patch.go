package settings

import "time"

// Patch is a partial Mode update. Nil fields are left unchanged.
type Patch struct {
	CaptureIntervalMs *int64     `json:"capture_interval_ms,omitempty"`
	SafeMode          *bool      `json:"safe_mode,omitempty"`
	VoiceID           *string    `json:"voice_id,omitempty"`
	CueVerbosity      *Verbosity `json:"cue_verbosity,omitempty"`
	VoiceMode         *bool      `json:"voice_mode,omitempty"`
}

// Apply returns m with the set fields of p applied, normalized.
func (m Mode) Apply(p Patch) Mode {
	if p.CaptureIntervalMs != nil {
		m.CaptureInterval = time.Duration(*p.CaptureIntervalMs) * time.Millisecond
	}
	if p.SafeMode != nil {
		m.SafeMode = *p.SafeMode
	}
	if p.VoiceID != nil {
		m.VoiceID = *p.VoiceID
	}
	if p.CueVerbosity != nil {
		m.CueVerbosity = *p.CueVerbosity
	}
	if p.VoiceMode != nil {
		m.VoiceMode = *p.VoiceMode
	}
	return m.Normalize()
}
