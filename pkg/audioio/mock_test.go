package audioio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock
	cfg.BufferDuration = 10 * time.Millisecond
	return cfg
}

func TestMockSource_StartStop(t *testing.T) {
	src := NewMockSource(testConfig(), nil)
	defer src.Close()

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Start(ctx); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if _, err := src.Read(ctx); err != io.EOF {
		t.Errorf("Read after stop = %v, want io.EOF", err)
	}
}

func TestMockSource_Read(t *testing.T) {
	cfg := testConfig()
	src := NewMockSource(cfg, nil, WithSineWave(440, 0.5))
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	chunk, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if want := cfg.BufferSize() * cfg.Channels; len(chunk.Samples) != want {
		t.Errorf("samples = %d, want %d", len(chunk.Samples), want)
	}
	if chunk.Duration() != cfg.BufferDuration {
		t.Errorf("Duration = %v, want %v", chunk.Duration(), cfg.BufferDuration)
	}
	if RMS(chunk.Samples) == 0 {
		t.Error("sine wave should not be silent")
	}
}

func TestMockSource_Close(t *testing.T) {
	src := NewMockSource(testConfig(), nil)
	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := src.Start(context.Background()); err != io.ErrClosedPipe {
		t.Errorf("Start after close = %v, want ErrClosedPipe", err)
	}
}

func TestRecordExactWindow(t *testing.T) {
	cfg := testConfig()
	src := NewMockSource(cfg, nil, WithUnpaced())

	clip, err := Record(context.Background(), src, 3*time.Second)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if want := cfg.Samples(3 * time.Second); len(clip.Samples) != want {
		t.Errorf("samples = %d, want %d", len(clip.Samples), want)
	}
	if clip.Duration() != 3*time.Second {
		t.Errorf("Duration = %v, want 3s", clip.Duration())
	}
}

func TestRecordEmpty(t *testing.T) {
	src := NewMockSource(testConfig(), nil, WithUnpaced(), WithMaxChunks(0))

	_, err := Record(context.Background(), src, time.Second)
	if !errors.Is(err, ErrNoAudio) {
		t.Errorf("Record = %v, want ErrNoAudio", err)
	}
}

func TestRecordStartError(t *testing.T) {
	boom := errors.New("no microphone")
	src := NewMockSource(testConfig(), nil, WithStartError(boom))

	if _, err := Record(context.Background(), src, time.Second); !errors.Is(err, boom) {
		t.Errorf("Record = %v, want %v", err, boom)
	}
}

func TestPlayWritesAllSamples(t *testing.T) {
	sink := NewMockSink(testConfig(), nil)
	samples := make([]int16, 1234)
	for i := range samples {
		samples[i] = int16(i)
	}

	if err := Play(context.Background(), sink, samples); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	got := sink.Samples()
	if len(got) != len(samples) || got[1233] != 1233 {
		t.Errorf("sink got %d samples", len(got))
	}
	if sink.Flushes() != 1 {
		t.Errorf("Flushes = %d, want 1", sink.Flushes())
	}
}
