// Package audioio captures microphone audio and plays synthesized speech.
//
// Two backends are available:
//   - PortAudio, for real devices on Linux, macOS and Windows
//   - Mock, for tests and headless runs
package audioio

import (
	"fmt"
	"time"
)

// Backend names an audio implementation.
type Backend string

const (
	// BackendAuto picks PortAudio.
	BackendAuto Backend = "auto"
	// BackendPortAudio uses the system PortAudio library.
	BackendPortAudio Backend = "portaudio"
	// BackendMock generates silence or a tone and discards playback.
	BackendMock Backend = "mock"
)

// Config holds audio device settings.
type Config struct {
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate in Hz. Default 16000, the rate speech recognition expects.
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels. Default 1.
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the length of one chunk. Default 20ms.
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`
}

// DefaultConfig returns mono 16kHz audio in 20ms chunks.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     16000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the number of frames per chunk.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// Samples returns the number of interleaved samples covering d.
func (c *Config) Samples(d time.Duration) int {
	return int(float64(c.SampleRate)*d.Seconds()) * c.Channels
}
