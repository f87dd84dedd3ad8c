// Package voicecmd records a short utterance and maps it to a control command.
package voicecmd

import "strings"

// Command is a recognized control action.
type Command string

const (
	WhereAmI     Command = "where_am_i"
	GuideMe      Command = "guide_me"
	Stop         Command = "stop"
	WhatDoYouSee Command = "what_do_you_see"
	Unknown      Command = "unknown"
)

// Result is the outcome of one recognition.
type Result struct {
	Command    Command `json:"command"`
	Transcript string  `json:"transcript"`
}

type bucket struct {
	command  Command
	keywords []string
}

// buckets are checked in order; the first containing a keyword wins.
// Stop precedes guide so "stop guiding" never starts guidance.
var buckets = []bucket{
	{WhereAmI, []string{"where am i", "where's my location", "what's my location", "where are we", "current location", "location"}},
	{Stop, []string{"stop", "stop guidance", "stop guiding", "end guidance", "cancel"}},
	{GuideMe, []string{"guide me", "start guidance", "start guiding", "begin guidance", "help me navigate", "start", "guide"}},
	{WhatDoYouSee, []string{"what do you see", "describe", "what's in front", "what's ahead", "tell me what you see", "scene description", "scene"}},
}

// Classify maps a transcript to a Command by substring matching on the
// lower-cased, trimmed text.
func Classify(transcript string) Command {
	t := strings.ToLower(strings.TrimSpace(transcript))
	if t == "" {
		return Unknown
	}
	t = strings.ReplaceAll(t, "’", "'")
	for _, b := range buckets {
		for _, kw := range b.keywords {
			if strings.Contains(t, kw) {
				return b.command
			}
		}
	}
	return Unknown
}
