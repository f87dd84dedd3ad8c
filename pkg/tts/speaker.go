package tts

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-soundscape/pkg/audioio"
)

// DefaultSpeakTimeout bounds synthesis plus playback of one utterance.
const DefaultSpeakTimeout = 20 * time.Second

// Speaker plays synthesized speech on an audio sink.
//
// Say never blocks and never reports errors: when synthesis or playback
// fails the text is handed to the fallback announcer, and if that fails
// too the failure is logged. Utterances are played one at a time in the
// order their synthesis completes.
type Speaker struct {
	provider Provider
	sink     audioio.Sink
	fallback Announcer
	logger   *slog.Logger
	timeout  time.Duration

	play   sync.Mutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	spoken atomic.Uint64
}

// NewSpeaker creates a speaker. provider and sink may be nil, in which
// case every utterance goes to fallback. A nil fallback only logs.
func NewSpeaker(provider Provider, sink audioio.Sink, fallback Announcer, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Speaker{
		provider: provider,
		sink:     sink,
		fallback: fallback,
		logger:   logger.With("component", "tts.speaker"),
		timeout:  DefaultSpeakTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Say starts speaking text in voice and returns immediately.
func (s *Speaker) Say(text, voice string) {
	if text == "" || s.closed.Load() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		s.Speak(ctx, text, voice)
	}()
}

// Speak speaks text and returns when playback has finished.
func (s *Speaker) Speak(ctx context.Context, text, voice string) {
	if text == "" {
		return
	}
	if err := s.synthesizeAndPlay(ctx, text, voice); err != nil {
		s.logger.Warn("speech synthesis failed, using local voice", "error", err, "text", text)
		s.announce(ctx, text)
		return
	}
	s.spoken.Add(1)
}

func (s *Speaker) synthesizeAndPlay(ctx context.Context, text, voice string) error {
	if s.provider == nil || s.sink == nil {
		return ErrProviderUnavailable
	}

	result, err := s.provider.Synthesize(ctx, text, voice)
	if err != nil {
		return err
	}

	out := s.sink.Config()
	samples := audioio.BytesToSamples(result.Audio)
	if result.Format.SampleRate > 0 {
		samples = audioio.Resample(samples, result.Format.SampleRate, out.SampleRate)
	}
	if out.Channels > 1 {
		samples = upmix(samples, out.Channels)
	}

	s.play.Lock()
	defer s.play.Unlock()
	return audioio.Play(ctx, s.sink, samples)
}

func (s *Speaker) announce(ctx context.Context, text string) {
	if s.fallback == nil {
		s.logger.Info("unspoken", "text", text)
		return
	}
	if err := s.fallback.Announce(ctx, text); err != nil {
		s.logger.Error("local voice failed", "error", err, "text", text)
	}
}

// Spoken returns how many utterances played through the provider.
func (s *Speaker) Spoken() uint64 {
	return s.spoken.Load()
}

// Wait blocks until every pending Say has finished.
func (s *Speaker) Wait() {
	s.wg.Wait()
}

// Close cancels pending speech, waits for it, and closes the provider.
func (s *Speaker) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	if s.provider != nil {
		return s.provider.Close()
	}
	return nil
}

func upmix(mono []int16, channels int) []int16 {
	out := make([]int16, 0, len(mono)*channels)
	for _, v := range mono {
		for c := 0; c < channels; c++ {
			out = append(out, v)
		}
	}
	return out
}
