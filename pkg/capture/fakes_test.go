package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-soundscape/pkg/guidance"
	"github.com/teslashibe/go-soundscape/pkg/scene"
	"github.com/teslashibe/go-soundscape/pkg/settings"
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeFrames struct {
	notReady bool
	err      error
}

func (f *fakeFrames) Ready() bool { return !f.notReady }

func (f *fakeFrames) Capture(ctx context.Context) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

// fakeAnalyzer returns a fixed scene. When gate is non-nil each call blocks
// until gate is closed or ctx is done.
type fakeAnalyzer struct {
	mu    sync.Mutex
	scene *scene.Description
	err   error
	gate  chan struct{}
	delay time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, jpeg []byte) (*scene.Description, error) {
	a.calls.Add(1)
	n := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)
	for {
		m := a.maxSeen.Load()
		if n <= m || a.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.scene, nil
}

func (a *fakeAnalyzer) set(s *scene.Description, err error) {
	a.mu.Lock()
	a.scene, a.err = s, err
	a.mu.Unlock()
}

type spoken struct {
	Text    string
	VoiceID string
}

type fakeSpeaker struct {
	mu    sync.Mutex
	calls []spoken
}

func (s *fakeSpeaker) Say(text, voiceID string) {
	s.mu.Lock()
	s.calls = append(s.calls, spoken{text, voiceID})
	s.mu.Unlock()
}

func (s *fakeSpeaker) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Text
	}
	return out
}

type fixedMode struct {
	mu sync.Mutex
	m  settings.Mode
}

func (f *fixedMode) Mode() settings.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m
}

func (f *fixedMode) Set(m settings.Mode) {
	f.mu.Lock()
	f.m = m
	f.mu.Unlock()
}

// placeholderAnalyzer is a fakeAnalyzer that reports canned output.
type placeholderAnalyzer struct {
	fakeAnalyzer
}

func (*placeholderAnalyzer) Placeholder() bool { return true }

// heldPulser blocks every pulse until release is closed.
type heldPulser struct {
	started chan guidance.Haptic
	release chan struct{}
}

func newHeldPulser() *heldPulser {
	return &heldPulser{started: make(chan guidance.Haptic, 1), release: make(chan struct{})}
}

func (p *heldPulser) Pulse(kind guidance.Haptic) {
	p.started <- kind
	<-p.release
}
