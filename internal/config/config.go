// Package config provides configuration helpers for soundscape commands.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvGoogleAPIKey        = "GOOGLE_API_KEY"
	EnvGoogleMapsAPIKey    = "GOOGLE_MAPS_API_KEY"
	EnvGoogleCredentials   = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvElevenLabsAPIKey    = "ELEVENLABS_API_KEY"
	EnvElevenLabsVoiceID   = "ELEVENLABS_VOICE_ID"
	EnvOpenAIAPIKey        = "OPENAI_API_KEY"
	EnvCaptureIntervalMs   = "SOUNDSCAPE_CAPTURE_INTERVAL_MS"
	EnvSettingsPath        = "SOUNDSCAPE_SETTINGS"
	EnvCameraDevice        = "SOUNDSCAPE_CAMERA_DEVICE"
	EnvLatitude            = "SOUNDSCAPE_LAT"
	EnvLongitude           = "SOUNDSCAPE_LNG"
	EnvPermissionsPrefix   = "SOUNDSCAPE_PERMIT_"
	DefaultElevenLabsVoice = "Rachel"
	DefaultHTTPPort        = "8080"
)

// LoadEnv loads variables from the given .env files into the process environment.
// Missing files are ignored; variables already set are not overridden.
func LoadEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// Env holds the collaborator credentials read from the environment.
type Env struct {
	GoogleAPIKey      string
	GoogleMapsAPIKey  string
	GoogleCredentials string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	OpenAIAPIKey      string
	CaptureInterval   time.Duration
	SettingsPath      string
	CameraDevice      string
}

// FromEnv reads Env from the process environment.
func FromEnv() Env {
	e := Env{
		GoogleAPIKey:      os.Getenv(EnvGoogleAPIKey),
		GoogleMapsAPIKey:  os.Getenv(EnvGoogleMapsAPIKey),
		GoogleCredentials: os.Getenv(EnvGoogleCredentials),
		ElevenLabsAPIKey:  os.Getenv(EnvElevenLabsAPIKey),
		ElevenLabsVoiceID: StringOr(EnvElevenLabsVoiceID, DefaultElevenLabsVoice),
		OpenAIAPIKey:      os.Getenv(EnvOpenAIAPIKey),
		CaptureInterval:   DurationMsOr(EnvCaptureIntervalMs, 0),
		SettingsPath:      StringOr(EnvSettingsPath, DefaultSettingsPath()),
		CameraDevice:      StringOr(EnvCameraDevice, "0"),
	}
	// The maps key falls back to the general Google key, as the geocoder
	// and speech services accept the same project key.
	if e.GoogleMapsAPIKey == "" {
		e.GoogleMapsAPIKey = e.GoogleAPIKey
	}
	return e
}

// StringOr returns the env var or the fallback if unset.
func StringOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DurationMsOr parses an integer millisecond env var.
// Returns fallback when unset or unparsable.
func DurationMsOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// FloatOr parses a float env var, reporting whether it was set and valid.
func FloatOr(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// DefaultSettingsPath returns ~/.soundscape/settings.yaml.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(home, ".soundscape", "settings.yaml")
}
