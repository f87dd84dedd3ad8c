package audioio

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNoAudio is returned when a recording produced no samples.
var ErrNoAudio = errors.New("audioio: no audio recorded")

// Chunk is a block of interleaved PCM16 samples.
type Chunk struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration returns the playback length of the chunk.
func (c Chunk) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate*c.Channels) * float64(time.Second))
}

// Source captures audio from an input device.
type Source interface {
	// Start begins capture. Calling Start on a running source is a no-op.
	Start(ctx context.Context) error

	// Read blocks for the next chunk. It returns io.EOF once stopped.
	Read(ctx context.Context) (Chunk, error)

	// Stop halts capture. It is safe to call more than once.
	Stop() error

	Config() Config
	Name() string
	io.Closer
}

// Sink plays audio on an output device.
type Sink interface {
	Start(ctx context.Context) error

	// Write queues a chunk, blocking while the device buffer is full.
	Write(ctx context.Context, chunk Chunk) error

	// Flush waits until queued audio has played.
	Flush(ctx context.Context) error

	Stop() error
	Config() Config
	Name() string
	io.Closer
}

// Record captures exactly d of audio from src.
//
// The source is started and stopped by Record. Cancelling ctx aborts the
// recording; callers that need the full window regardless should pass a
// context without cancellation.
func Record(ctx context.Context, src Source, d time.Duration) (Chunk, error) {
	cfg := src.Config()
	want := cfg.Samples(d)
	clip := Chunk{SampleRate: cfg.SampleRate, Channels: cfg.Channels, Samples: make([]int16, 0, want)}

	if err := src.Start(ctx); err != nil {
		return clip, err
	}
	defer src.Stop()

	for len(clip.Samples) < want {
		chunk, err := src.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return clip, err
		}
		clip.Samples = append(clip.Samples, chunk.Samples...)
	}

	if len(clip.Samples) > want {
		clip.Samples = clip.Samples[:want]
	}
	if len(clip.Samples) == 0 {
		return clip, ErrNoAudio
	}
	return clip, nil
}

// Play writes samples to sink in chunk-sized blocks and waits for playback.
func Play(ctx context.Context, sink Sink, samples []int16) error {
	cfg := sink.Config()
	if err := sink.Start(ctx); err != nil {
		return err
	}

	step := cfg.BufferSize() * cfg.Channels
	if step <= 0 {
		step = len(samples)
	}
	for off := 0; off < len(samples); off += step {
		end := off + step
		if end > len(samples) {
			end = len(samples)
		}
		chunk := Chunk{Samples: samples[off:end], SampleRate: cfg.SampleRate, Channels: cfg.Channels}
		if err := sink.Write(ctx, chunk); err != nil {
			return err
		}
	}
	return sink.Flush(ctx)
}
