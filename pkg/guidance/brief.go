package guidance

// briefText holds the short forms spoken when cue verbosity is brief.
var briefText = map[string]string{
	"Obstacle close. Stop.":                             "Obstacle. Stop.",
	"Curb in two steps.":                                "Curb.",
	"Walk sign. Crosswalk ahead.":                       "Walk.",
	"Walk sign. Veer left.":                             "Walk. Left.",
	"Walk sign. Veer right.":                            "Walk. Right.",
	"Walk sign. Crosswalk detected, alignment unclear.": "Walk. Unclear.",
	"Countdown signal. Do not start crossing.":          "Countdown. Wait.",
	"Stop. Do not walk signal.":                         "Don't walk.",
	"Crosswalk ahead.":                                  "Crosswalk.",
	"Veer left.":                                        "Left.",
	"Veer right.":                                       "Right.",
	"Crosswalk detected, alignment unclear.":            "Crosswalk. Unclear.",
}

// Brief returns the short form of a cue. Unknown text is returned unchanged.
// Only the spoken output is shortened; debounce compares the full text.
func Brief(text string) string {
	if b, ok := briefText[text]; ok {
		return b
	}
	return text
}
