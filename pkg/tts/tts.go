// Package tts turns guidance and narration text into audio.
//
// Providers synthesize 16-bit mono PCM. A Chain tries providers in order,
// and a Speaker plays the result on an audio sink, falling back to the
// local espeak announcer when synthesis or playback fails:
//
//	chain, _ := tts.NewChain(eleven)
//	speaker := tts.NewSpeaker(chain, sink, tts.NewEspeak(), logger)
//	speaker.Say("Crosswalk ahead.", "Rachel")
package tts

import (
	"context"
	"time"
)

// Provider synthesizes speech.
type Provider interface {
	// Synthesize converts text to PCM audio in the given voice.
	// An empty voice selects the provider default.
	Synthesize(ctx context.Context, text, voice string) (*AudioResult, error)

	// Health checks connectivity and credentials.
	Health(ctx context.Context) error

	// Name identifies the provider in logs and errors.
	Name() string

	Close() error
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	// Audio is little-endian PCM16.
	Audio  []byte
	Format AudioFormat

	Duration  time.Duration
	CharCount int

	// LatencyMs is the time until the response arrived.
	LatencyMs int64
}

// AudioFormat describes the PCM layout of an AudioResult.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
}

// Encoding names a PCM output format. Values match the ElevenLabs
// output_format parameter.
type Encoding string

const (
	EncodingPCM16 Encoding = "pcm_16000"
	EncodingPCM22 Encoding = "pcm_22050"
	EncodingPCM24 Encoding = "pcm_24000"
	EncodingPCM44 Encoding = "pcm_44100"
)

// VoiceSettings controls ElevenLabs voice characteristics.
type VoiceSettings struct {
	// Stability in 0..1. Lower is more expressive.
	Stability float64

	// SimilarityBoost in 0..1. Higher stays closer to the voice sample.
	SimilarityBoost float64

	SpeakerBoost bool
}

// DefaultVoiceSettings favors a calm, consistent delivery for short cues.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.4,
		SimilarityBoost: 0.8,
		SpeakerBoost:    true,
	}
}

// SampleRateFromEncoding returns the sample rate of enc, or 24000 when
// enc is unknown.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM44:
		return 44100
	default:
		return 24000
	}
}

func pcmDuration(bytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := bytes / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
