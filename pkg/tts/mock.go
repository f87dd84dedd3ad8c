package tts

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for tests. Behavior is customized through the
// function fields; calls are recorded.
type Mock struct {
	// SynthesizeFunc defaults to silence at 16kHz.
	SynthesizeFunc func(ctx context.Context, text, voice string) (*AudioResult, error)
	HealthFunc     func(ctx context.Context) error

	mu    sync.Mutex
	calls []MockCall
}

var _ Provider = (*Mock)(nil)

// MockCall records one invocation.
type MockCall struct {
	Method string
	Text   string
	Voice  string
	Time   time.Time
}

// NewMock returns a mock that synthesizes 10ms of silence per character.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text, voice string) (*AudioResult, error) {
			const rate = 16000
			audio := make([]byte, len(text)*rate/100*2)
			return &AudioResult{
				Audio:     audio,
				Format:    AudioFormat{Encoding: EncodingPCM16, SampleRate: rate, Channels: 1},
				Duration:  pcmDuration(len(audio), rate),
				CharCount: len(text),
			}, nil
		},
	}
}

// WithError returns a mock whose every call fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text, voice string) (*AudioResult, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error { return err },
	}
}

// WithLatency delays m's synthesis by delay, honoring cancellation.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	inner := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text, voice string) (*AudioResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if inner == nil {
			return nil, WrapError("mock", ErrProviderUnavailable)
		}
		return inner(ctx, text, voice)
	}
	return m
}

func (m *Mock) Synthesize(ctx context.Context, text, voice string) (*AudioResult, error) {
	m.record("Synthesize", text, voice)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, voice)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", "", "")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Close() error {
	m.record("Close", "", "")
	return nil
}

func (m *Mock) record(method, text, voice string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Voice: voice, Time: time.Now()})
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns how many times method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
