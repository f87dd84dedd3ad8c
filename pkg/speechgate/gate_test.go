package speechgate

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCanSpeakNeverMarked(t *testing.T) {
	g := New(newClock().Now)
	if !g.CanSpeak(DefaultInterval) {
		t.Error("unmarked gate should allow speech")
	}
}

func TestCanSpeakAfterMark(t *testing.T) {
	clk := newClock()
	g := New(clk.Now)

	g.MarkSpeechTime()
	if g.CanSpeak(DefaultInterval) {
		t.Error("CanSpeak should be false immediately after mark")
	}

	clk.Advance(DefaultInterval - time.Millisecond)
	if g.CanSpeak(DefaultInterval) {
		t.Error("CanSpeak should be false before interval")
	}

	clk.Advance(time.Millisecond)
	if !g.CanSpeak(DefaultInterval) {
		t.Error("CanSpeak should be true once interval elapsed")
	}
	if g.CanSpeak(ErrorInterval) {
		t.Error("error interval should still be closed")
	}
}

func TestResetSpeechTime(t *testing.T) {
	g := New(newClock().Now)
	g.MarkSpeechTime()
	g.ResetSpeechTime()
	if !g.CanSpeak(ErrorInterval) {
		t.Error("reset should reopen gate immediately")
	}
	if !g.LastSpeech().IsZero() {
		t.Error("LastSpeech should be zero after reset")
	}
}

func TestTryAcquire(t *testing.T) {
	clk := newClock()
	g := New(clk.Now)

	if !g.TryAcquire(DefaultInterval) {
		t.Fatal("first acquire should pass")
	}
	if g.TryAcquire(DefaultInterval) {
		t.Fatal("second acquire should fail")
	}
	if !g.LastSpeech().Equal(clk.Now()) {
		t.Error("acquire should mark speech time")
	}

	clk.Advance(DefaultInterval)
	if !g.TryAcquire(DefaultInterval) {
		t.Error("acquire after interval should pass")
	}
}

func TestTryAcquireSingleWinner(t *testing.T) {
	g := New(newClock().Now)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire(DefaultInterval) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("winners = %d, want 1", got)
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default should return the same gate")
	}
}
