package vision

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-soundscape/pkg/scene"
)

// SampleScene is returned by MockAnalyzer when no scenes are scripted.
var SampleScene = scene.Description{
	CrosswalkPresent: true,
	Alignment:        scene.AlignCenter,
	CurbAhead:        false,
	ObstacleClose:    false,
	PedestrianSignal: scene.SignalWalk,
	Confidence:       0.85,
	Narration:        "A marked crosswalk lies directly ahead. The pedestrian signal shows walk.",
}

// MockAnalyzer returns scripted scenes after an optional delay.
// Useful for demos without an API key.
type MockAnalyzer struct {
	mu     sync.Mutex
	scenes []scene.Description
	next   int
	delay  time.Duration
	err    error
	calls  int

	placeholder bool
}

var _ scene.Analyzer = (*MockAnalyzer)(nil)

// NewMockAnalyzer cycles through scenes, or SampleScene if none are given.
func NewMockAnalyzer(delay time.Duration, scenes ...scene.Description) *MockAnalyzer {
	if len(scenes) == 0 {
		scenes = []scene.Description{SampleScene}
	}
	return &MockAnalyzer{scenes: scenes, delay: delay}
}

// NewPlaceholderAnalyzer returns SampleScene for every frame and reports
// itself as a placeholder, so on-demand descriptions refuse it.
func NewPlaceholderAnalyzer() *MockAnalyzer {
	m := NewMockAnalyzer(0)
	m.placeholder = true
	return m
}

// Placeholder implements scene.Placeholder.
func (m *MockAnalyzer) Placeholder() bool { return m.placeholder }

// SetError makes subsequent calls fail with err; nil restores success.
func (m *MockAnalyzer) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Calls returns how many frames were analyzed.
func (m *MockAnalyzer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Analyze implements scene.Analyzer.
func (m *MockAnalyzer) Analyze(ctx context.Context, jpeg []byte) (*scene.Description, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	d := m.scenes[m.next%len(m.scenes)]
	m.next++
	return &d, nil
}
