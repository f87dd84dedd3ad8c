package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio must be initialized once per process while any stream is open.
var (
	paMu   sync.Mutex
	paRefs int
)

func paAcquire() error {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio: initialize: %w", err)
		}
	}
	paRefs++
	return nil
}

func paRelease() {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		return
	}
	paRefs--
	if paRefs == 0 {
		_ = portaudio.Terminate()
	}
}

// PortAudioSource captures from the default input device.
type PortAudioSource struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []int16
	closed bool
}

func newPortAudioSource(cfg Config, logger *slog.Logger) (*PortAudioSource, error) {
	if err := paAcquire(); err != nil {
		return nil, err
	}
	return &PortAudioSource{
		cfg:    cfg,
		logger: logger,
		buf:    make([]int16, cfg.BufferSize()*cfg.Channels),
	}, nil
}

// Start opens and starts the input stream.
func (s *PortAudioSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.stream != nil {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(s.cfg.Channels, 0, float64(s.cfg.SampleRate), s.cfg.BufferSize(), s.buf)
	if err != nil {
		return fmt.Errorf("portaudio: open input: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("portaudio: start input: %w", err)
	}
	s.stream = stream
	s.logger.Debug("portaudio source started", "sample_rate", s.cfg.SampleRate)
	return nil
}

// Read blocks until one buffer has been captured.
func (s *PortAudioSource) Read(ctx context.Context) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return Chunk{}, io.EOF
	}
	if err := s.stream.Read(); err != nil {
		return Chunk{}, fmt.Errorf("portaudio: read: %w", err)
	}
	samples := make([]int16, len(s.buf))
	copy(samples, s.buf)
	return Chunk{Samples: samples, SampleRate: s.cfg.SampleRate, Channels: s.cfg.Channels}, nil
}

// Stop stops and closes the input stream.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Stop()
	s.stream.Close()
	s.stream = nil
	return err
}

// Config returns the audio configuration.
func (s *PortAudioSource) Config() Config { return s.cfg }

// Name returns "portaudio".
func (s *PortAudioSource) Name() string { return string(BackendPortAudio) }

// Close stops the source and releases PortAudio.
func (s *PortAudioSource) Close() error {
	err := s.Stop()
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if !wasClosed {
		paRelease()
	}
	return err
}

var _ Source = (*PortAudioSource)(nil)

// PortAudioSink plays on the default output device.
type PortAudioSink struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []int16
	closed bool
}

func newPortAudioSink(cfg Config, logger *slog.Logger) (*PortAudioSink, error) {
	if err := paAcquire(); err != nil {
		return nil, err
	}
	return &PortAudioSink{
		cfg:    cfg,
		logger: logger,
		buf:    make([]int16, cfg.BufferSize()*cfg.Channels),
	}, nil
}

// Start opens and starts the output stream.
func (s *PortAudioSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.stream != nil {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(0, s.cfg.Channels, float64(s.cfg.SampleRate), s.cfg.BufferSize(), s.buf)
	if err != nil {
		return fmt.Errorf("portaudio: open output: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("portaudio: start output: %w", err)
	}
	s.stream = stream
	return nil
}

// Write plays chunk, padding the last buffer with silence.
func (s *PortAudioSink) Write(ctx context.Context, chunk Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return io.ErrClosedPipe
	}

	samples := chunk.Samples
	for len(samples) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(s.buf, samples)
		for i := n; i < len(s.buf); i++ {
			s.buf[i] = 0
		}
		if err := s.stream.Write(); err != nil {
			return fmt.Errorf("portaudio: write: %w", err)
		}
		samples = samples[n:]
	}
	return nil
}

// Flush is a no-op; Write blocks until PortAudio has accepted each buffer.
func (s *PortAudioSink) Flush(ctx context.Context) error {
	return ctx.Err()
}

// Stop stops and closes the output stream.
func (s *PortAudioSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Stop()
	s.stream.Close()
	s.stream = nil
	return err
}

// Config returns the audio configuration.
func (s *PortAudioSink) Config() Config { return s.cfg }

// Name returns "portaudio".
func (s *PortAudioSink) Name() string { return string(BackendPortAudio) }

// Close stops the sink and releases PortAudio.
func (s *PortAudioSink) Close() error {
	err := s.Stop()
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if !wasClosed {
		paRelease()
	}
	return err
}

var _ Sink = (*PortAudioSink)(nil)
