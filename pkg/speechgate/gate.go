// Package speechgate limits how often the output channel may fire,
// independent of what is being said.
package speechgate

import (
	"sync"
	"time"
)

const (
	// DefaultInterval is the cooldown between regular cues.
	DefaultInterval = 2500 * time.Millisecond

	// ErrorInterval is the cooldown for the vision-offline announcement.
	ErrorInterval = 5000 * time.Millisecond
)

// Gate records when speech last started.
// It is safe for concurrent use.
type Gate struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// New creates a Gate. A nil clock uses time.Now.
func New(clock func() time.Time) *Gate {
	if clock == nil {
		clock = time.Now
	}
	return &Gate{now: clock}
}

var (
	defaultGate *Gate
	defaultOnce sync.Once
)

// Default returns the process-wide gate.
func Default() *Gate {
	defaultOnce.Do(func() {
		defaultGate = New(nil)
	})
	return defaultGate
}

// CanSpeak reports whether at least minInterval has passed since the last mark.
// It is always true if speech was never marked or the gate was reset.
func (g *Gate) CanSpeak(minInterval time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canSpeakLocked(minInterval)
}

// MarkSpeechTime records now as the last speech time.
func (g *Gate) MarkSpeechTime() {
	g.mu.Lock()
	g.last = g.now()
	g.mu.Unlock()
}

// ResetSpeechTime clears the last speech time.
func (g *Gate) ResetSpeechTime() {
	g.mu.Lock()
	g.last = time.Time{}
	g.mu.Unlock()
}

// TryAcquire checks CanSpeak and, if it passes, marks speech time in the
// same critical section. Two callers racing for the gate cannot both win.
func (g *Gate) TryAcquire(minInterval time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.canSpeakLocked(minInterval) {
		return false
	}
	g.last = g.now()
	return true
}

// LastSpeech returns the last marked time, or the zero time.
func (g *Gate) LastSpeech() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func (g *Gate) canSpeakLocked(minInterval time.Duration) bool {
	if g.last.IsZero() {
		return true
	}
	return g.now().Sub(g.last) >= minInterval
}
