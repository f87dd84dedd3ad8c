package tts

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// Announcer speaks text directly on the device, without a Provider.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// AnnouncerFunc adapts a function to Announcer.
type AnnouncerFunc func(ctx context.Context, text string) error

func (f AnnouncerFunc) Announce(ctx context.Context, text string) error { return f(ctx, text) }

// ErrNoLocalVoice is returned when no local speech program is installed.
var ErrNoLocalVoice = errors.New("tts: no local speech program found")

// Espeak announces text with espeak-ng, espeak, or say on macOS.
type Espeak struct {
	// Rate is the speaking rate in words per minute; 0 uses the program default.
	Rate int

	once sync.Once
	path string
	run  func(ctx context.Context, name string, args ...string) error
}

var _ Announcer = (*Espeak)(nil)

// NewEspeak creates an announcer that finds its program on first use.
func NewEspeak() *Espeak {
	return &Espeak{Rate: 170, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (e *Espeak) program() string {
	e.once.Do(func() {
		candidates := []string{"espeak-ng", "espeak"}
		if runtime.GOOS == "darwin" {
			candidates = append([]string{"say"}, candidates...)
		}
		for _, name := range candidates {
			if p, err := exec.LookPath(name); err == nil {
				e.path = p
				return
			}
		}
	})
	return e.path
}

// Announce blocks until the program exits.
func (e *Espeak) Announce(ctx context.Context, text string) error {
	prog := e.program()
	if prog == "" {
		return ErrNoLocalVoice
	}

	var args []string
	if e.Rate > 0 {
		flag := "-s"
		if strings.HasSuffix(prog, "say") {
			flag = "-r"
		}
		args = append(args, flag, fmt.Sprint(e.Rate))
	}
	args = append(args, "--", text)

	run := e.run
	if run == nil {
		run = runCommand
	}
	return run(ctx, prog, args...)
}
