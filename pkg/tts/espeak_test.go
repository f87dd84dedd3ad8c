package tts

import (
	"context"
	"errors"
	"testing"
)

func TestEspeakAnnounce(t *testing.T) {
	var gotName string
	var gotArgs []string
	e := &Espeak{Rate: 150, path: "/usr/bin/espeak-ng"}
	e.once.Do(func() {})
	e.run = func(ctx context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	if err := e.Announce(context.Background(), "-hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotName != "/usr/bin/espeak-ng" {
		t.Errorf("unexpected program %q", gotName)
	}
	want := []string{"-s", "150", "--", "-hello"}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, gotArgs[i], want[i])
		}
	}
}

func TestEspeakMissingProgram(t *testing.T) {
	e := &Espeak{}
	e.once.Do(func() {})
	if err := e.Announce(context.Background(), "hi"); !errors.Is(err, ErrNoLocalVoice) {
		t.Errorf("expected ErrNoLocalVoice, got %v", err)
	}
}
