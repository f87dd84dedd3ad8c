package tts

import "strings"

// DefaultVoice is the voice used when settings name none.
const DefaultVoice = "Rachel"

// ElevenLabsVoices maps preset names to ElevenLabs voice IDs.
var ElevenLabsVoices = map[string]string{
	"rachel":    "21m00Tcm4TlvDq8ikWAM", // American female, calm
	"charlotte": "XB0fDUnXU5powFXDhCwa", // British female, warm
	"aria":      "9BWtsMINqrJLrRacOk9x", // American female, expressive
	"sarah":     "EXAVITQu4vr4xnSDxMaL", // American female, soft
	"domi":      "AZnzlk1XvdvUeBnXmlld", // American female, strong
	"josh":      "TxGEqnHWrfWFTfGW9XjX", // American male, deep
	"adam":      "pNInz6obpgDQGcFmaJgB", // American male, deep
}

// ResolveElevenLabsVoice returns the voice ID for a preset name, matched
// case-insensitively, or name unchanged if it is already an ID.
func ResolveElevenLabsVoice(name string) string {
	if id, ok := ElevenLabsVoices[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return name
}

// IsElevenLabsPreset reports whether name is a known preset.
func IsElevenLabsPreset(name string) bool {
	_, ok := ElevenLabsVoices[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
