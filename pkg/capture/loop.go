package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-soundscape/pkg/guidance"
	"github.com/teslashibe/go-soundscape/pkg/haptics"
	"github.com/teslashibe/go-soundscape/pkg/permissions"
	"github.com/teslashibe/go-soundscape/pkg/scene"
	"github.com/teslashibe/go-soundscape/pkg/settings"
	"github.com/teslashibe/go-soundscape/pkg/speechgate"
)

// Loop turns periodic frames into cues. One Loop belongs to one session.
//
// Ticks fire on a fixed period. A tick that arrives while a cycle is still
// running is skipped, so at most one analysis is ever outstanding.
type Loop struct {
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
	rate    *RateEstimator
	metrics *Metrics

	active     atomic.Bool
	inFlight   atomic.Bool
	describing atomic.Bool
	skipped    atomic.Uint64
	wg         sync.WaitGroup
	pulses     sync.WaitGroup // haptic pulses still playing

	mu           sync.RWMutex
	state        State
	lastMessage  string
	lastGuidance *guidance.Event
	cycles       uint64
	failures     uint64
	onStatus     func(Status)
	onScene      func(*scene.Description)
}

// New creates a Loop. Frames, Speaker and Mode are required; the rest
// fall back to working defaults.
func New(cfg Config) (*Loop, error) {
	if cfg.Frames == nil {
		return nil, errors.New("capture: frame source required")
	}
	if cfg.Speaker == nil {
		return nil, errors.New("capture: speaker required")
	}
	if cfg.Mode == nil {
		return nil, errors.New("capture: mode source required")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Engine == nil {
		cfg.Engine = guidance.NewEngine(cfg.Clock)
	}
	if cfg.Gate == nil {
		cfg.Gate = speechgate.Default()
	}
	if cfg.Permissions == nil {
		cfg.Permissions = permissions.AllGranted()
	}
	if cfg.Haptics == nil {
		cfg.Haptics = haptics.Logger{L: cfg.Logger}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Loop{
		cfg:     cfg,
		log:     cfg.Logger.With("component", "capture"),
		now:     cfg.Clock,
		rate:    NewRateEstimator(cfg.Clock),
		metrics: NewMetrics(),
		state:   StateOffline,
	}, nil
}

// OnStatus registers a callback fired after every status change.
func (l *Loop) OnStatus(fn func(Status)) {
	l.mu.Lock()
	l.onStatus = fn
	l.mu.Unlock()
}

// OnScene registers a callback fired with every successful analysis.
func (l *Loop) OnScene(fn func(*scene.Description)) {
	l.mu.Lock()
	l.onScene = fn
	l.mu.Unlock()
}

// SetActive starts or stops guidance. Stopping takes effect at the next
// tick; a cycle already running completes.
func (l *Loop) SetActive(active bool) {
	if l.active.Swap(active) == active {
		return
	}
	if active {
		l.rate.Reset()
		l.log.Info("guidance started")
		return
	}
	l.log.Info("guidance stopped")
	l.setState(StateOffline, nil)
}

// Active reports whether guidance is on.
func (l *Loop) Active() bool {
	return l.active.Load()
}

// Metrics returns the stage latency collector.
func (l *Loop) Metrics() *Metrics {
	return l.metrics
}

// Status returns a snapshot of the loop.
func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.statusLocked()
}

func (l *Loop) statusLocked() Status {
	s := Status{
		State:        l.state,
		Active:       l.active.Load(),
		LastMessage:  l.lastMessage,
		Rate:         l.rate.Rate(),
		Cycles:       l.cycles,
		Failures:     l.failures,
		SkippedTicks: l.skipped.Load(),
		LastLatency:  l.metrics.Last(),
	}
	if l.lastGuidance != nil {
		ev := *l.lastGuidance
		s.LastGuidance = &ev
	}
	return s
}

// Run ticks until ctx is done, then waits for any running cycle and
// haptic pulse.
// The period is re-read from the mode source after every tick.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer l.pulses.Wait()
	defer l.wg.Wait()

	l.log.Debug("capture loop running", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Tick(ctx)
			if next := l.interval(); next != interval {
				l.log.Debug("capture interval changed", "from", interval, "to", next)
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Wait blocks until the running cycle, if any, has finished.
func (l *Loop) Wait() {
	l.wg.Wait()
}

// Tick handles one scheduler tick and reports whether a cycle started.
func (l *Loop) Tick(ctx context.Context) bool {
	if !l.active.Load() || !l.cfg.Permissions.Granted(permissions.Camera) {
		l.setState(StateOffline, nil)
		return false
	}
	if !l.inFlight.CompareAndSwap(false, true) {
		n := l.skipped.Add(1)
		l.log.Debug("tick skipped, cycle in flight", "skipped", n)
		return false
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.inFlight.Store(false)
		l.cycle(ctx)
	}()
	return true
}

func (l *Loop) interval() time.Duration {
	d := l.cfg.Mode.Mode().CaptureInterval
	if d <= 0 {
		return settings.DefaultCaptureInterval
	}
	return d
}

// cycle runs capture, analyze, decide and speak as one transaction.
func (l *Loop) cycle(ctx context.Context) {
	mode := l.cfg.Mode.Mode()
	start := l.now()
	l.setState(StateAnalyzing, nil)

	if l.cfg.Analyzer == nil {
		l.fail(ctx, ErrAnalyzerUnconfigured, mode)
		return
	}
	frame, err := l.cfg.Frames.Capture(ctx)
	if err == nil && len(frame) == 0 {
		err = ErrEmptyFrame
	}
	if err != nil {
		l.fail(ctx, fmt.Errorf("capture frame: %w", err), mode)
		return
	}
	captured := l.now()

	desc, err := l.cfg.Analyzer.Analyze(ctx, frame)
	if err != nil {
		l.fail(ctx, fmt.Errorf("analyze frame: %w", err), mode)
		return
	}
	analyzed := l.now()

	l.mu.RLock()
	last := l.lastGuidance
	onScene := l.onScene
	l.mu.RUnlock()
	if onScene != nil {
		onScene(desc)
	}

	var spoken *string
	if ev := l.cfg.Engine.Decide(desc, last, mode.SafeMode); ev != nil {
		if l.cfg.Gate.TryAcquire(speechgate.DefaultInterval) {
			l.mu.Lock()
			l.lastGuidance = ev
			l.mu.Unlock()
			spoken = &ev.Text

			l.pulse(ev.Haptic)
			text := ev.Text
			if mode.CueVerbosity == settings.VerbosityBrief {
				text = guidance.Brief(text)
			}
			l.log.Info("cue", "text", text, "haptic", ev.Haptic)
			l.cfg.Speaker.Say(text, mode.VoiceID)
		} else {
			l.log.Debug("cue debounced by speech gate", "text", ev.Text)
		}
	}

	l.metrics.Record(Stages{
		Capture: captured.Sub(start),
		Analyze: analyzed.Sub(captured),
		Total:   l.now().Sub(start),
	})
	l.rate.Complete()

	l.mu.Lock()
	l.cycles++
	l.mu.Unlock()
	l.setState(StateReady, spoken)
}

// pulse plays kind without holding up the cycle.
func (l *Loop) pulse(kind guidance.Haptic) {
	l.pulses.Add(1)
	go func() {
		defer l.pulses.Done()
		l.cfg.Haptics.Pulse(kind)
	}()
}

func (l *Loop) fail(ctx context.Context, err error, mode settings.Mode) {
	if ctx.Err() != nil {
		l.log.Debug("cycle cancelled", "error", err)
		l.setState(StateOffline, nil)
		return
	}
	l.log.Warn("capture cycle failed", "error", err)

	msg := VisionOfflineMessage
	l.mu.Lock()
	l.failures++
	l.mu.Unlock()
	l.setState(StateError, &msg)

	if l.cfg.Gate.TryAcquire(speechgate.ErrorInterval) {
		l.cfg.Speaker.Say(VisionOfflineMessage, mode.VoiceID)
	}
}

// setState updates the state and, if msg is non-nil, the last message.
// A loop deactivated mid-cycle reports offline.
func (l *Loop) setState(state State, msg *string) {
	if !l.active.Load() {
		state = StateOffline
	}

	l.mu.Lock()
	changed := l.state != state || msg != nil
	l.state = state
	if msg != nil {
		l.lastMessage = *msg
	}
	status := l.statusLocked()
	cb := l.onStatus
	l.mu.Unlock()

	if changed && cb != nil {
		cb(status)
	}
}

// DescribeScene captures and analyzes one frame and returns its narration.
// It does not touch the guidance history, the speech gate or the schedule.
// A call made while another is running fails with ErrDescribeBusy.
func (l *Loop) DescribeScene(ctx context.Context) (string, error) {
	if l.cfg.Analyzer == nil || scene.IsPlaceholder(l.cfg.Analyzer) {
		return "", ErrAnalyzerUnconfigured
	}
	if !l.describing.CompareAndSwap(false, true) {
		return "", ErrDescribeBusy
	}
	defer l.describing.Store(false)

	if !l.cfg.Permissions.Granted(permissions.Camera) || !l.cfg.Frames.Ready() {
		return "", ErrCameraNotReady
	}

	frame, err := l.cfg.Frames.Capture(ctx)
	if err == nil && len(frame) == 0 {
		err = ErrEmptyFrame
	}
	if err != nil {
		return "", fmt.Errorf("capture frame: %w", err)
	}

	desc, err := l.cfg.Analyzer.Analyze(ctx, frame)
	if err != nil {
		return "", fmt.Errorf("analyze frame: %w", err)
	}
	if n := strings.TrimSpace(desc.Narration); n != "" {
		return n, nil
	}
	return DefaultNarration, nil
}
