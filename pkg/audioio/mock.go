package audioio

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MockSource generates silence or a sine tone.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan Chunk
	stopCh   chan struct{}
	done     chan struct{}

	chunksRead atomic.Int64

	phase     float64
	frequency float64 // Hz, 0 = silence
	amplitude float64
	paced     bool
	maxChunks int // negative = unlimited
	startErr  error
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave makes the mock generate a tone.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithUnpaced delivers chunks as fast as they are read instead of in real time.
func WithUnpaced() MockSourceOption {
	return func(m *MockSource) {
		m.paced = false
	}
}

// WithMaxChunks ends the stream after n chunks.
func WithMaxChunks(n int) MockSourceOption {
	return func(m *MockSource) {
		m.maxChunks = n
	}
}

// WithStartError makes Start fail, as an unplugged microphone would.
func WithStartError(err error) MockSourceOption {
	return func(m *MockSource) {
		m.startErr = err
	}
}

// NewMockSource creates a paced mock source producing silence.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MockSource{
		cfg:       cfg,
		logger:    logger,
		amplitude: 0.5,
		paced:     true,
		maxChunks: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins generating audio.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.startErr != nil {
		return m.startErr
	}
	if m.running {
		return nil
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	m.streamCh = make(chan Chunk, 10)
	go m.generate(ctx, m.stopCh, m.streamCh, m.done)

	m.logger.Debug("mock audio source started", "sample_rate", m.cfg.SampleRate, "frequency", m.frequency)
	return nil
}

func (m *MockSource) generate(ctx context.Context, stop <-chan struct{}, out chan<- Chunk, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	var tick <-chan time.Time
	if m.paced {
		ticker := time.NewTicker(m.cfg.BufferDuration)
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := 0; m.maxChunks < 0 || n < m.maxChunks; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-tick:
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case out <- m.chunk():
			m.chunksRead.Add(1)
		}
	}
}

func (m *MockSource) chunk() Chunk {
	frames := m.cfg.BufferSize()
	samples := make([]int16, frames*m.cfg.Channels)
	if m.frequency > 0 {
		for i := 0; i < frames; i++ {
			v := int16(m.amplitude * 32767 * math.Sin(2*math.Pi*m.frequency*m.phase/float64(m.cfg.SampleRate)))
			for ch := 0; ch < m.cfg.Channels; ch++ {
				samples[i*m.cfg.Channels+ch] = v
			}
			m.phase++
			if m.phase >= float64(m.cfg.SampleRate) {
				m.phase = 0
			}
		}
	}
	return Chunk{Samples: samples, SampleRate: m.cfg.SampleRate, Channels: m.cfg.Channels}
}

// Read returns the next chunk or io.EOF once the stream ends.
func (m *MockSource) Read(ctx context.Context) (Chunk, error) {
	m.mu.Lock()
	ch := m.streamCh
	m.mu.Unlock()
	if ch == nil {
		return Chunk{}, io.EOF
	}

	select {
	case <-ctx.Done():
		return Chunk{}, ctx.Err()
	case c, ok := <-ch:
		if !ok {
			return Chunk{}, io.EOF
		}
		return c, nil
	}
}

// Stop halts generation and waits for the generator to exit.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
	m.logger.Debug("mock audio source stopped")
	return nil
}

// Config returns the audio configuration.
func (m *MockSource) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSource) Name() string { return "mock" }

// ChunksRead returns the number of chunks delivered.
func (m *MockSource) ChunksRead() int64 { return m.chunksRead.Load() }

// Close stops the source; it cannot be restarted.
func (m *MockSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return m.Stop()
}

var _ Source = (*MockSource)(nil)

// MockSink keeps written samples in memory.
type MockSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	samples []int16
	flushes int
}

// NewMockSink creates a mock sink.
func NewMockSink(cfg Config, logger *slog.Logger) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSink{cfg: cfg, logger: logger}
}

// Start begins accepting audio.
func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return io.ErrClosedPipe
	}
	m.running = true
	return nil
}

// Write records a chunk.
func (m *MockSink) Write(ctx context.Context, chunk Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.running {
		return io.ErrClosedPipe
	}
	m.samples = append(m.samples, chunk.Samples...)
	return nil
}

// Flush counts the call and returns.
func (m *MockSink) Flush(ctx context.Context) error {
	m.mu.Lock()
	m.flushes++
	m.mu.Unlock()
	return ctx.Err()
}

// Stop halts audio acceptance.
func (m *MockSink) Stop() error {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	return nil
}

// Config returns the audio configuration.
func (m *MockSink) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSink) Name() string { return "mock" }

// Close releases the sink.
func (m *MockSink) Close() error {
	m.mu.Lock()
	m.closed = true
	m.running = false
	m.mu.Unlock()
	return nil
}

// Samples returns everything written so far.
func (m *MockSink) Samples() []int16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int16(nil), m.samples...)
}

// Flushes returns how many times Flush was called.
func (m *MockSink) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

var _ Sink = (*MockSink)(nil)
