package guidance

import "github.com/teslashibe/go-soundscape/pkg/scene"

type cue struct {
	Text   string
	Haptic Haptic
}

var (
	obstacleCue = cue{"Obstacle close. Stop.", HapticLong}
	curbCue     = cue{"Curb in two steps.", HapticShort}
)

type crossing struct {
	signal    scene.Signal
	alignment scene.Alignment
}

// crosswalkTable maps every signal and alignment pair to its cue.
var crosswalkTable = func() map[crossing]cue {
	t := map[crossing]cue{
		{scene.SignalWalk, scene.AlignCenter}:    {"Walk sign. Crosswalk ahead.", HapticShort},
		{scene.SignalWalk, scene.AlignVeerLeft}:  {"Walk sign. Veer left.", HapticShort},
		{scene.SignalWalk, scene.AlignVeerRight}: {"Walk sign. Veer right.", HapticShort},
		{scene.SignalWalk, scene.AlignUnknown}:   {"Walk sign. Crosswalk detected, alignment unclear.", HapticNone},

		{scene.SignalNone, scene.AlignCenter}:    {"Crosswalk ahead.", HapticShort},
		{scene.SignalNone, scene.AlignVeerLeft}:  {"Veer left.", HapticShort},
		{scene.SignalNone, scene.AlignVeerRight}: {"Veer right.", HapticShort},
		{scene.SignalNone, scene.AlignUnknown}:   {"Crosswalk detected, alignment unclear.", HapticNone},
	}
	for _, a := range []scene.Alignment{scene.AlignCenter, scene.AlignVeerLeft, scene.AlignVeerRight, scene.AlignUnknown} {
		t[crossing{scene.SignalCountdown, a}] = cue{"Countdown signal. Do not start crossing.", HapticShort}
		t[crossing{scene.SignalDontWalk, a}] = cue{"Stop. Do not walk signal.", HapticLong}
	}
	return t
}()

func candidate(s *scene.Description) (cue, bool) {
	switch {
	case s == nil:
		return cue{}, false
	case s.ObstacleClose:
		return obstacleCue, true
	case s.CurbAhead:
		return curbCue, true
	case s.CrosswalkPresent:
		c, ok := crosswalkTable[crossing{s.PedestrianSignal, s.Alignment}]
		return c, ok
	}
	return cue{}, false
}
