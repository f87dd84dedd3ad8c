// Package assistant is the control surface of a guidance session.
//
// A Session owns the capture loop, the voice command recognizer and the
// location lookup, and turns user actions into loop changes and speech.
// On-demand failures are spoken as short apologies and never change the
// loop's state.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-soundscape/pkg/capture"
	"github.com/teslashibe/go-soundscape/pkg/location"
	"github.com/teslashibe/go-soundscape/pkg/settings"
	"github.com/teslashibe/go-soundscape/pkg/speechgate"
	"github.com/teslashibe/go-soundscape/pkg/voicecmd"
)

// Action is a user request.
type Action string

const (
	ActionStart         Action = "start"
	ActionStop          Action = "stop"
	ActionWhereAmI      Action = "where_am_i"
	ActionDescribeScene Action = "describe_scene"
	ActionListen        Action = "listen"
)

// Apologies spoken when an on-demand request fails.
const (
	MsgVisionOffline    = "Scene description unavailable. Vision service is offline."
	MsgCameraNotReady   = "Camera not ready."
	MsgSceneUnavailable = "Scene description unavailable."
	MsgMicPermission    = "Microphone permission required."
	MsgVoiceUnavailable = "Voice commands unavailable."
	MsgNotUnderstood    = "I didn't catch that."
	MsgCouldNotHear     = "Sorry, I couldn't hear you."
)

var (
	ErrUnknownAction = errors.New("assistant: unknown action")
	ErrClosed        = errors.New("assistant: session closed")
)

// ParseAction validates an action name.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	switch a {
	case ActionStart, ActionStop, ActionWhereAmI, ActionDescribeScene, ActionListen:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Reply describes what a dispatched action did.
type Reply struct {
	Action Action `json:"action"`

	// Spoken is the text handed to the speaker, if any.
	Spoken string `json:"spoken,omitempty"`

	// Command and Transcript are set for ActionListen.
	Command    voicecmd.Command `json:"command,omitempty"`
	Transcript string           `json:"transcript,omitempty"`

	// Active is the guidance state after the action.
	Active bool `json:"active"`

	// Ignored is set when a listen or describe request arrived while one
	// of the same kind was running.
	Ignored bool `json:"ignored,omitempty"`

	// Error describes an on-demand failure that was apologized for.
	Error string `json:"error,omitempty"`
}

// Recognizer records and classifies a voice command.
type Recognizer interface {
	Recognize(ctx context.Context) (voicecmd.Result, error)
	Busy() bool
}

// Locator answers where the user is.
type Locator interface {
	WhereAmI(ctx context.Context) location.Result
}

// Config wires a Session.
type Config struct {
	Loop       *capture.Loop
	Recognizer Recognizer
	Locator    Locator
	Speaker    capture.Speaker
	Settings   *settings.Live

	// Gate defaults to speechgate.Default().
	Gate   *speechgate.Gate
	Logger *slog.Logger
}

// Session is one assistant instance.
type Session struct {
	id      string
	cfg     Config
	log     *slog.Logger
	started time.Time

	mu     sync.Mutex // serializes start, stop and close
	closed atomic.Bool
}

// New creates a Session. Loop, Speaker and Settings are required.
func New(cfg Config) (*Session, error) {
	if cfg.Loop == nil {
		return nil, errors.New("assistant: capture loop required")
	}
	if cfg.Speaker == nil {
		return nil, errors.New("assistant: speaker required")
	}
	if cfg.Settings == nil {
		return nil, errors.New("assistant: settings required")
	}
	if cfg.Gate == nil {
		cfg.Gate = speechgate.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	id := uuid.NewString()
	return &Session{
		id:      id,
		cfg:     cfg,
		log:     cfg.Logger.With("component", "assistant", "session", id),
		started: time.Now(),
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Loop returns the capture loop.
func (s *Session) Loop() *capture.Loop { return s.cfg.Loop }

// Settings returns the live settings.
func (s *Session) Settings() *settings.Live { return s.cfg.Settings }

// Run drives the capture loop until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	return s.cfg.Loop.Run(ctx)
}

// Dispatch performs a. Errors are returned only for unknown actions and
// closed sessions; on-demand failures are reported in Reply.Error.
func (s *Session) Dispatch(ctx context.Context, a Action) (Reply, error) {
	if s.closed.Load() {
		return Reply{Action: a}, ErrClosed
	}

	switch a {
	case ActionStart:
		return s.setActive(a, true), nil
	case ActionStop:
		return s.setActive(a, false), nil
	case ActionWhereAmI:
		return s.whereAmI(ctx), nil
	case ActionDescribeScene:
		return s.describe(ctx), nil
	case ActionListen:
		return s.listen(ctx), nil
	}
	return Reply{Action: a}, fmt.Errorf("%w: %q", ErrUnknownAction, a)
}

// Toggle starts guidance if stopped and stops it if running.
func (s *Session) Toggle(ctx context.Context) (Reply, error) {
	if s.cfg.Loop.Active() {
		return s.Dispatch(ctx, ActionStop)
	}
	return s.Dispatch(ctx, ActionStart)
}

func (s *Session) setActive(a Action, active bool) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.Loop.SetActive(active)
	s.cfg.Gate.ResetSpeechTime()
	return Reply{Action: a, Active: active}
}

func (s *Session) say(r *Reply, text string) {
	r.Spoken = text
	s.cfg.Speaker.Say(text, s.cfg.Settings.Mode().VoiceID)
}

func (s *Session) reply(a Action) Reply {
	return Reply{Action: a, Active: s.cfg.Loop.Active()}
}

func (s *Session) whereAmI(ctx context.Context) Reply {
	r := s.reply(ActionWhereAmI)
	res := location.Unknown()
	if s.cfg.Locator != nil {
		res = s.cfg.Locator.WhereAmI(ctx)
	}
	if res.Phrase == "" {
		res = location.Unknown()
	}
	s.say(&r, res.Phrase)
	return r
}

func (s *Session) describe(ctx context.Context) Reply {
	r := s.reply(ActionDescribeScene)
	narration, err := s.cfg.Loop.DescribeScene(ctx)
	if errors.Is(err, capture.ErrDescribeBusy) {
		r.Ignored = true
		return r
	}
	if err != nil {
		s.log.Warn("scene description failed", "error", err)
		r.Error = err.Error()
		s.say(&r, describeApology(err))
		return r
	}
	s.say(&r, narration)
	return r
}

func describeApology(err error) string {
	switch {
	case errors.Is(err, capture.ErrAnalyzerUnconfigured):
		return MsgVisionOffline
	case errors.Is(err, capture.ErrCameraNotReady):
		return MsgCameraNotReady
	default:
		return MsgSceneUnavailable
	}
}

func (s *Session) listen(ctx context.Context) Reply {
	r := s.reply(ActionListen)
	if s.cfg.Recognizer == nil {
		r.Error = voicecmd.ErrTranscriptionUnconfigured.Error()
		s.say(&r, MsgVoiceUnavailable)
		return r
	}

	res, err := s.cfg.Recognizer.Recognize(ctx)
	if errors.Is(err, voicecmd.ErrBusy) {
		r.Ignored = true
		return r
	}
	if err != nil {
		s.log.Warn("voice command failed", "error", err)
		r.Error = err.Error()
		s.say(&r, listenApology(err))
		return r
	}

	r.Command = res.Command
	r.Transcript = res.Transcript

	var next Reply
	switch res.Command {
	case voicecmd.WhereAmI:
		next = s.whereAmI(ctx)
	case voicecmd.GuideMe:
		next = s.setActive(ActionStart, true)
	case voicecmd.Stop:
		next = s.setActive(ActionStop, false)
	case voicecmd.WhatDoYouSee:
		next = s.describe(ctx)
	default:
		s.say(&r, MsgNotUnderstood)
		return r
	}

	r.Spoken = next.Spoken
	r.Active = next.Active
	r.Error = next.Error
	return r
}

func listenApology(err error) string {
	switch {
	case errors.Is(err, voicecmd.ErrPermissionDenied):
		return MsgMicPermission
	case errors.Is(err, voicecmd.ErrTranscriptionUnconfigured):
		return MsgVoiceUnavailable
	default:
		return MsgCouldNotHear
	}
}

// Snapshot is the session state shown to clients.
type Snapshot struct {
	Session   string        `json:"session"`
	Uptime    string        `json:"uptime"`
	Listening bool          `json:"listening"`
	Mode      settings.Mode `json:"mode"`
	capture.Status
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Session: s.id,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Mode:    s.cfg.Settings.Mode(),
		Status:  s.cfg.Loop.Status(),
	}
	if s.cfg.Recognizer != nil {
		snap.Listening = s.cfg.Recognizer.Busy()
	}
	return snap
}

// Close stops guidance and clears the speech gate. It is idempotent.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Loop.SetActive(false)
	s.cfg.Gate.ResetSpeechTime()
	s.log.Info("session closed")
	return nil
}
