// Package haptics delivers best-effort tactile feedback for cues.
//
// Every Pulser swallows its own errors; a missing vibration motor must
// never interrupt guidance.
package haptics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/teslashibe/go-soundscape/pkg/guidance"
)

// Pulse lengths.
const (
	ShortPulse = 80 * time.Millisecond
	LongPulse  = 400 * time.Millisecond
)

// Pulser emits one haptic pattern.
type Pulser interface {
	Pulse(kind guidance.Haptic)
}

// Duration returns the pulse length for kind, or zero for none.
func Duration(kind guidance.Haptic) time.Duration {
	switch kind {
	case guidance.HapticShort:
		return ShortPulse
	case guidance.HapticLong:
		return LongPulse
	}
	return 0
}

// Beeper renders pulses as tones on the system beeper. On a phone-less
// setup a bone-conduction headset or buzzer stands in for the motor.
type Beeper struct {
	Freq   float64
	Logger *slog.Logger
	beep   func(freq float64, ms int) error
}

var _ Pulser = (*Beeper)(nil)

// NewBeeper creates a Beeper at beeep's default frequency.
func NewBeeper(logger *slog.Logger) *Beeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Beeper{Freq: beeep.DefaultFreq, Logger: logger, beep: beeep.Beep}
}

// Pulse implements Pulser.
func (b *Beeper) Pulse(kind guidance.Haptic) {
	d := Duration(kind)
	if d == 0 {
		return
	}
	if err := b.beep(b.Freq, int(d/time.Millisecond)); err != nil {
		b.Logger.Debug("haptic pulse failed", "kind", kind, "error", err)
	}
}

// Logger records pulses in the log only.
type Logger struct {
	L *slog.Logger
}

var _ Pulser = Logger{}

// Pulse implements Pulser.
func (l Logger) Pulse(kind guidance.Haptic) {
	if kind == guidance.HapticNone || kind == "" {
		return
	}
	logger := l.L
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("haptic", "kind", kind, "duration", Duration(kind))
}

// Mock records pulses for tests.
type Mock struct {
	mu    sync.Mutex
	calls []guidance.Haptic
}

var _ Pulser = (*Mock)(nil)

// Pulse implements Pulser.
func (m *Mock) Pulse(kind guidance.Haptic) {
	m.mu.Lock()
	m.calls = append(m.calls, kind)
	m.mu.Unlock()
}

// Calls returns the recorded pulses.
func (m *Mock) Calls() []guidance.Haptic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]guidance.Haptic(nil), m.calls...)
}
