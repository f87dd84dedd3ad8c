package voicecmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-soundscape/pkg/audioio"
	"github.com/teslashibe/go-soundscape/pkg/permissions"
	"github.com/teslashibe/go-soundscape/pkg/stt"
)

// RecordWindow is the fixed length of a command recording.
const RecordWindow = 3 * time.Second

// Config wires a Recognizer.
type Config struct {
	Source      audioio.Source
	Transcriber stt.Transcriber
	Permissions permissions.Provider

	// Window defaults to RecordWindow.
	Window time.Duration
	// TempDir holds the clip while it is transcribed; defaults to os.TempDir().
	TempDir string
	Logger  *slog.Logger
}

// Recognizer turns one spoken utterance into a Command.
// Only one recognition may run at a time.
type Recognizer struct {
	cfg  Config
	log  *slog.Logger
	busy atomic.Bool

	// remove is swapped in tests to observe clip deletion.
	remove func(string) error
}

// New creates a Recognizer.
func New(cfg Config) *Recognizer {
	if cfg.Window <= 0 {
		cfg.Window = RecordWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Permissions == nil {
		cfg.Permissions = permissions.AllGranted()
	}
	return &Recognizer{
		cfg:    cfg,
		log:    cfg.Logger.With("component", "voicecmd"),
		remove: os.Remove,
	}
}

// Busy reports whether a recognition is running.
func (r *Recognizer) Busy() bool {
	return r.busy.Load()
}

// Recognize records, transcribes and classifies one utterance.
//
// A call made while another is running fails immediately with ErrBusy.
// Once recording starts the full window is captured even if ctx is
// cancelled. The temporary clip is deleted whatever the outcome.
func (r *Recognizer) Recognize(ctx context.Context) (Result, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer r.busy.Store(false)

	if !r.cfg.Permissions.Granted(permissions.Microphone) {
		return Result{}, ErrPermissionDenied
	}
	if r.cfg.Transcriber == nil || !r.cfg.Transcriber.Configured() {
		return Result{}, ErrTranscriptionUnconfigured
	}
	if r.cfg.Source == nil {
		return Result{}, fmt.Errorf("%w: no microphone", ErrRecordingFailed)
	}

	r.log.Debug("recording command", "window", r.cfg.Window)
	clip, err := audioio.Record(context.WithoutCancel(ctx), r.cfg.Source, r.cfg.Window)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRecordingFailed, err)
	}

	path, err := r.writeClip(clip)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRecordingFailed, err)
	}
	defer func() {
		if err := r.remove(path); err != nil {
			r.log.Warn("failed to delete recording", "path", path, "error", err)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRecordingFailed, err)
	}

	transcript, err := r.cfg.Transcriber.Transcribe(ctx, data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if transcript == "" {
		return Result{Command: Unknown}, nil
	}

	cmd := Classify(transcript)
	r.log.Info("voice command", "command", cmd, "transcript", transcript)
	return Result{Command: cmd, Transcript: transcript}, nil
}

func (r *Recognizer) writeClip(clip audioio.Chunk) (string, error) {
	f, err := os.CreateTemp(r.cfg.TempDir, "soundscape-cmd-*.wav")
	if err != nil {
		return "", err
	}
	path := f.Name()
	if err := audioio.WriteWAV(f, clip); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
