package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teslashibe/go-soundscape/pkg/guidance"
	"github.com/teslashibe/go-soundscape/pkg/haptics"
	"github.com/teslashibe/go-soundscape/pkg/permissions"
	"github.com/teslashibe/go-soundscape/pkg/scene"
	"github.com/teslashibe/go-soundscape/pkg/settings"
	"github.com/teslashibe/go-soundscape/pkg/speechgate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var curbScene = &scene.Description{CurbAhead: true, Alignment: scene.AlignUnknown, PedestrianSignal: scene.SignalNone, Confidence: 0.9}

type harness struct {
	loop     *Loop
	clock    *manualClock
	gate     *speechgate.Gate
	analyzer *fakeAnalyzer
	frames   *fakeFrames
	speaker  *fakeSpeaker
	haptics  *haptics.Mock
	perms    *permissions.Static
	mode     *fixedMode
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := newManualClock()
	h := &harness{
		clock:    clk,
		gate:     speechgate.New(clk.Now),
		analyzer: &fakeAnalyzer{scene: curbScene},
		frames:   &fakeFrames{},
		speaker:  &fakeSpeaker{},
		haptics:  &haptics.Mock{},
		perms:    permissions.AllGranted(),
		mode:     &fixedMode{m: settings.Defaults()},
	}
	loop, err := New(Config{
		Frames:      h.frames,
		Analyzer:    h.analyzer,
		Gate:        h.gate,
		Speaker:     h.speaker,
		Haptics:     h.haptics,
		Permissions: h.perms,
		Mode:        h.mode,
		Clock:       clk.Now,
	})
	require.NoError(t, err)
	h.loop = loop
	return h
}

// step runs one tick to completion.
func (h *harness) step(t *testing.T) {
	t.Helper()
	require.True(t, h.loop.Tick(context.Background()), "tick should start a cycle")
	h.loop.Wait()
	h.loop.pulses.Wait()
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestCycleSpeaksCue(t *testing.T) {
	h := newHarness(t)
	h.loop.SetActive(true)
	h.step(t)

	st := h.loop.Status()
	assert.Equal(t, StateReady, st.State)
	assert.Equal(t, []string{"Curb in two steps."}, h.speaker.Texts())
	assert.Equal(t, []guidance.Haptic{guidance.HapticShort}, h.haptics.Calls())
	require.NotNil(t, st.LastGuidance)
	assert.Equal(t, "Curb in two steps.", st.LastGuidance.Text)
	assert.Equal(t, "Curb in two steps.", st.LastMessage)
	assert.Equal(t, uint64(1), st.Cycles)
	assert.Equal(t, h.clock.Now(), h.gate.LastSpeech())
}

func TestHapticPulseDoesNotDelayCue(t *testing.T) {
	h := newHarness(t)
	pulser := newHeldPulser()
	h.loop.cfg.Haptics = pulser
	h.analyzer.set(&scene.Description{ObstacleClose: true, Alignment: scene.AlignUnknown, PedestrianSignal: scene.SignalNone, Confidence: 0.9}, nil)
	h.loop.SetActive(true)

	require.True(t, h.loop.Tick(context.Background()))
	h.loop.Wait()

	// The cycle finished while the long pulse is still playing.
	assert.Equal(t, guidance.HapticLong, <-pulser.started)
	assert.Equal(t, []string{"Obstacle close. Stop."}, h.speaker.Texts())
	assert.Equal(t, StateReady, h.loop.Status().State)

	close(pulser.release)
	h.loop.pulses.Wait()
}

func TestGateDeniedCueIsNotRecorded(t *testing.T) {
	h := newHarness(t)
	h.loop.SetActive(true)
	h.gate.MarkSpeechTime()

	h.step(t)
	st := h.loop.Status()
	assert.Nil(t, st.LastGuidance, "denied cue must not become lastGuidance")
	assert.Empty(t, h.speaker.Texts())
	assert.Empty(t, h.haptics.Calls())
	assert.Equal(t, StateReady, st.State)

	// The same cue is retried and voiced once the gate opens.
	h.clock.Advance(speechgate.DefaultInterval)
	h.step(t)
	assert.Equal(t, []string{"Curb in two steps."}, h.speaker.Texts())
}

func TestEngineDebounceAcrossCycles(t *testing.T) {
	h := newHarness(t)
	h.mode.Set(settings.Mode{CaptureInterval: time.Second, SafeMode: true, VoiceID: "Rachel"})
	h.loop.SetActive(true)

	h.step(t)
	// Gate is open again but the safe-mode window (3750ms) is not.
	h.clock.Advance(3 * time.Second)
	h.step(t)
	assert.Len(t, h.speaker.Texts(), 1)

	h.clock.Advance(time.Second)
	h.step(t)
	assert.Len(t, h.speaker.Texts(), 2)
}

func TestHigherPriorityHazardNotBlockedByEngine(t *testing.T) {
	h := newHarness(t)
	h.loop.SetActive(true)
	h.step(t)

	h.analyzer.set(&scene.Description{ObstacleClose: true, Alignment: scene.AlignUnknown, PedestrianSignal: scene.SignalNone}, nil)
	h.clock.Advance(speechgate.DefaultInterval)
	h.step(t)

	assert.Equal(t, []string{"Curb in two steps.", "Obstacle close. Stop."}, h.speaker.Texts())
	assert.Equal(t, []guidance.Haptic{guidance.HapticShort, guidance.HapticLong}, h.haptics.Calls())
}

func TestBriefVerbosity(t *testing.T) {
	h := newHarness(t)
	h.mode.Set(settings.Mode{CaptureInterval: time.Second, CueVerbosity: settings.VerbosityBrief, VoiceID: "Rachel"})
	h.loop.SetActive(true)
	h.step(t)

	assert.Equal(t, []string{"Curb."}, h.speaker.Texts())
	require.NotNil(t, h.loop.Status().LastGuidance)
	assert.Equal(t, "Curb in two steps.", h.loop.Status().LastGuidance.Text)
}

func TestErrorAnnouncedWithLongCooldown(t *testing.T) {
	h := newHarness(t)
	h.analyzer.set(nil, scene.ErrVisionUnavailable)
	h.loop.SetActive(true)

	h.step(t)
	st := h.loop.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, VisionOfflineMessage, st.LastMessage)
	assert.Equal(t, uint64(1), st.Failures)
	assert.Equal(t, []string{VisionOfflineMessage}, h.speaker.Texts())

	h.clock.Advance(3 * time.Second)
	h.step(t)
	assert.Len(t, h.speaker.Texts(), 1, "error announcement within 5s must be suppressed")

	h.clock.Advance(2 * time.Second)
	h.step(t)
	assert.Len(t, h.speaker.Texts(), 2)

	// The loop recovers on the next good cycle.
	h.analyzer.set(curbScene, nil)
	h.clock.Advance(speechgate.ErrorInterval)
	h.step(t)
	assert.Equal(t, StateReady, h.loop.Status().State)
}

func TestCaptureFailureIsError(t *testing.T) {
	h := newHarness(t)
	h.frames.err = errors.New("device busy")
	h.loop.SetActive(true)
	h.step(t)

	assert.Equal(t, StateError, h.loop.Status().State)
	assert.Equal(t, int32(0), h.analyzer.calls.Load())
}

func TestInactiveOrDeniedIsOffline(t *testing.T) {
	h := newHarness(t)

	assert.False(t, h.loop.Tick(context.Background()))
	assert.Equal(t, StateOffline, h.loop.Status().State)

	h.loop.SetActive(true)
	h.perms.Set(permissions.Camera, false)
	assert.False(t, h.loop.Tick(context.Background()))
	assert.Equal(t, StateOffline, h.loop.Status().State)
	assert.Equal(t, int32(0), h.analyzer.calls.Load())

	h.perms.Set(permissions.Camera, true)
	h.step(t)
	assert.Equal(t, StateReady, h.loop.Status().State)

	h.loop.SetActive(false)
	assert.Equal(t, StateOffline, h.loop.Status().State)
}

func TestTickSingleFlight(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.analyzer.gate = release
	h.loop.SetActive(true)

	started := 0
	for i := 0; i < 5; i++ {
		if h.loop.Tick(context.Background()) {
			started++
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, uint64(4), h.loop.Status().SkippedTicks)

	close(release)
	h.loop.Wait()
	assert.Equal(t, int32(started), h.analyzer.calls.Load())

	h.step(t)
	assert.Equal(t, int32(2), h.analyzer.calls.Load())
}

func TestRunNeverOverlapsSlowAnalyzer(t *testing.T) {
	a := &fakeAnalyzer{scene: curbScene, delay: 35 * time.Millisecond}
	mode := &fixedMode{m: settings.Mode{CaptureInterval: 10 * time.Millisecond, VoiceID: "Rachel"}}
	loop, err := New(Config{
		Frames:   &fakeFrames{},
		Analyzer: a,
		Gate:     speechgate.New(nil),
		Speaker:  &fakeSpeaker{},
		Haptics:  &haptics.Mock{},
		Mode:     mode,
	})
	require.NoError(t, err)
	loop.SetActive(true)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	require.NoError(t, loop.Run(ctx))

	st := loop.Status()
	assert.Equal(t, int32(1), a.maxSeen.Load(), "analyses overlapped")
	assert.Greater(t, st.SkippedTicks, uint64(0))
	// Every started cycle called the analyzer exactly once; the last one may
	// have been cancelled by shutdown.
	calls := uint64(a.calls.Load())
	assert.GreaterOrEqual(t, calls, st.Cycles)
	assert.LessOrEqual(t, calls, st.Cycles+1)
}

func TestOnStatusObserver(t *testing.T) {
	h := newHarness(t)
	var states []State
	h.loop.OnStatus(func(s Status) { states = append(states, s.State) })

	h.loop.SetActive(true)
	h.step(t)

	assert.Equal(t, []State{StateAnalyzing, StateReady}, states)
}

func TestOnSceneObserver(t *testing.T) {
	h := newHarness(t)
	var got *scene.Description
	h.loop.OnScene(func(d *scene.Description) { got = d })
	h.loop.SetActive(true)
	h.step(t)
	assert.Same(t, curbScene, got)
}

func TestDescribeScene(t *testing.T) {
	h := newHarness(t)
	h.analyzer.set(&scene.Description{Alignment: scene.AlignUnknown, Narration: "  A quiet street with parked cars. "}, nil)

	text, err := h.loop.DescribeScene(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A quiet street with parked cars.", text)

	h.analyzer.set(&scene.Description{Alignment: scene.AlignUnknown}, nil)
	text, err = h.loop.DescribeScene(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultNarration, text)

	st := h.loop.Status()
	assert.Nil(t, st.LastGuidance)
	assert.True(t, h.gate.LastSpeech().IsZero(), "describe must not touch the speech gate")
	assert.Equal(t, StateOffline, st.State)
	assert.Empty(t, h.speaker.Texts())
}

func TestDescribeSceneRefusals(t *testing.T) {
	h := newHarness(t)
	h.frames.notReady = true
	_, err := h.loop.DescribeScene(context.Background())
	assert.ErrorIs(t, err, ErrCameraNotReady)

	loop, err := New(Config{Frames: &fakeFrames{}, Speaker: &fakeSpeaker{}, Mode: &fixedMode{}})
	require.NoError(t, err)
	_, err = loop.DescribeScene(context.Background())
	assert.ErrorIs(t, err, ErrAnalyzerUnconfigured)

	h.frames.notReady = false
	h.analyzer.set(nil, scene.ErrVisionUnavailable)
	_, err = h.loop.DescribeScene(context.Background())
	assert.ErrorIs(t, err, scene.ErrVisionUnavailable)
}

func TestDescribeSceneRefusesPlaceholder(t *testing.T) {
	h := newHarness(t)
	stand := &placeholderAnalyzer{fakeAnalyzer{scene: curbScene}}
	h.loop.cfg.Analyzer = stand

	_, err := h.loop.DescribeScene(context.Background())
	assert.ErrorIs(t, err, ErrAnalyzerUnconfigured)
	assert.Zero(t, stand.calls.Load(), "no frame should be analyzed")

	// Periodic guidance still runs on canned scenes.
	h.loop.SetActive(true)
	h.step(t)
	assert.Equal(t, []string{"Curb in two steps."}, h.speaker.Texts())
}

func TestDescribeSceneBusy(t *testing.T) {
	h := newHarness(t)
	h.analyzer.gate = make(chan struct{})

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := h.loop.DescribeScene(context.Background())
		done <- result{text, err}
	}()
	require.Eventually(t, func() bool { return h.analyzer.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	_, err := h.loop.DescribeScene(context.Background())
	assert.ErrorIs(t, err, ErrDescribeBusy)

	close(h.analyzer.gate)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, DefaultNarration, res.text)

	// The guard is released once the first call returns.
	_, err = h.loop.DescribeScene(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int32(2), h.analyzer.calls.Load())
}

func TestMetricsRecorded(t *testing.T) {
	h := newHarness(t)
	h.loop.SetActive(true)
	h.step(t)
	h.step(t)

	// The manual clock does not move inside a cycle.
	assert.Equal(t, Stages{}, h.loop.Metrics().Last())
	assert.Equal(t, Stages{}, h.loop.Metrics().Average())

	m := NewMetrics()
	m.Record(Stages{Capture: 10 * time.Millisecond, Analyze: 100 * time.Millisecond, Total: 120 * time.Millisecond})
	m.Record(Stages{Capture: 30 * time.Millisecond, Analyze: 300 * time.Millisecond, Total: 340 * time.Millisecond})
	assert.Equal(t, Stages{Capture: 20 * time.Millisecond, Analyze: 200 * time.Millisecond, Total: 230 * time.Millisecond}, m.Average())
}
