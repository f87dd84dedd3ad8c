package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-soundscape/internal/config"
	"github.com/teslashibe/go-soundscape/internal/log"
	"github.com/teslashibe/go-soundscape/pkg/audioio"
	"github.com/teslashibe/go-soundscape/pkg/camera"
	"github.com/teslashibe/go-soundscape/pkg/camera/webcam"
	"github.com/teslashibe/go-soundscape/pkg/capture"
	"github.com/teslashibe/go-soundscape/pkg/location"
	"github.com/teslashibe/go-soundscape/pkg/permissions"
	"github.com/teslashibe/go-soundscape/pkg/scene"
	"github.com/teslashibe/go-soundscape/pkg/settings"
	"github.com/teslashibe/go-soundscape/pkg/stt"
	"github.com/teslashibe/go-soundscape/pkg/tts"
	"github.com/teslashibe/go-soundscape/pkg/vision"
	"github.com/teslashibe/go-soundscape/pkg/voicecmd"
)

// Flags shared by the commands that touch devices.
var (
	frameSource string
	audioMock   bool
	settingsAt  string
)

// frames is a frame source that may own a device.
type frames interface {
	capture.FrameSource
	Close() error
}

type fileFrames struct{ *camera.FileSource }

func (fileFrames) Close() error { return nil }

// openFrames opens the webcam, or replays JPEGs when frameSource is set.
// The returned manager is nil for file sources.
func openFrames(env config.Env) (frames, *camera.Manager, error) {
	if frameSource != "" {
		src, err := camera.NewFileSource(frameSource)
		if err != nil {
			return nil, nil, err
		}
		log.Info("replaying frames", "path", frameSource, "frames", src.Len())
		return fileFrames{src}, nil, nil
	}

	cfg := camera.DefaultConfig()
	cfg.Device = env.CameraDevice
	cam, err := webcam.Open(cfg, log.Component("webcam"))
	if err != nil {
		return nil, nil, fmt.Errorf("open camera: %w", err)
	}
	mgr := camera.NewManager(cfg)
	mgr.OnConfigChange = cam.Apply
	return cam, mgr, nil
}

// newAnalyzer returns Gemini, or sample scenes when no key is set. The
// sample analyzer keeps the loop running but describe refuses it.
func newAnalyzer(ctx context.Context, env config.Env) scene.Analyzer {
	a, err := vision.NewGemini(ctx,
		vision.WithAPIKey(env.GoogleAPIKey),
		vision.WithLogger(log.Component("vision")),
	)
	if err != nil {
		if errors.Is(err, scene.ErrVisionUnavailable) {
			log.Warn("no vision key, using sample scenes", "env", config.EnvGoogleAPIKey)
			return vision.NewPlaceholderAnalyzer()
		}
		log.Error("vision unavailable", "error", err)
		return nil
	}
	return a
}

// newVoice builds the speech chain: ElevenLabs, then OpenAI, then the
// local synthesizer.
func newVoice(env config.Env) (*tts.Speaker, error) {
	logger := log.Component("tts")

	var providers []tts.Provider
	if env.ElevenLabsAPIKey != "" {
		el, err := tts.NewElevenLabs(
			tts.WithAPIKey(env.ElevenLabsAPIKey),
			tts.WithVoice(env.ElevenLabsVoiceID),
			tts.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, el)
	}
	if env.OpenAIAPIKey != "" {
		oa, err := tts.NewOpenAI(
			tts.WithAPIKey(env.OpenAIAPIKey),
			tts.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, oa)
	}

	sink, err := audioio.NewSink(audioConfig(), log.Component("audio"))
	if err != nil {
		return nil, fmt.Errorf("open speaker: %w", err)
	}

	fallback := tts.NewEspeak()
	if len(providers) == 0 {
		log.Warn("no speech keys, using the local voice only")
		return tts.NewSpeaker(nil, sink, fallback, logger), nil
	}

	chain, err := tts.NewChainWithLogger(logger, providers...)
	if err != nil {
		return nil, err
	}
	return tts.NewSpeaker(chain, sink, fallback, logger), nil
}

func audioConfig() audioio.Config {
	cfg := audioio.DefaultConfig()
	if audioMock {
		cfg.Backend = audioio.BackendMock
	}
	return cfg
}

// newRecognizer wires the microphone to Google speech recognition.
func newRecognizer(ctx context.Context, env config.Env, perms permissions.Provider) (*voicecmd.Recognizer, error) {
	src, err := audioio.NewSource(audioConfig(), log.Component("audio"))
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}

	tr, err := stt.NewGoogle(ctx,
		stt.WithAPIKey(env.GoogleAPIKey),
		stt.WithCredentialsFile(env.GoogleCredentials),
		stt.WithLogger(log.Component("stt")),
	)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	return voicecmd.New(voicecmd.Config{
		Source:      src,
		Transcriber: tr,
		Permissions: perms,
		Logger:      log.Component("voicecmd"),
	}), nil
}

// newLocator uses SOUNDSCAPE_LAT and SOUNDSCAPE_LNG as a fixed position.
func newLocator(env config.Env, perms permissions.Provider) *location.Locator {
	lat, okLat := config.FloatOr(config.EnvLatitude)
	lng, okLng := config.FloatOr(config.EnvLongitude)

	var geo location.Geocoder
	if env.GoogleMapsAPIKey != "" {
		geo = location.NewGoogle(
			location.WithAPIKey(env.GoogleMapsAPIKey),
			location.WithLogger(log.Component("location")),
		)
	}

	return &location.Locator{
		Positions:   location.Fixed{Pos: location.Position{Lat: lat, Lng: lng}, Valid: okLat && okLng},
		Geocoder:    geo,
		Permissions: perms,
		Logger:      log.Component("location"),
	}
}

// loadSettings reads the saved mode, falling back to defaults.
func loadSettings(env config.Env) *settings.Live {
	path := env.SettingsPath
	if settingsAt != "" {
		path = settingsAt
	}
	defaults := settings.Defaults()
	if env.CaptureInterval > 0 {
		defaults.CaptureInterval = env.CaptureInterval
	}

	store := settings.NewFileStore(path, defaults)
	mode, err := store.Load()
	if err != nil {
		log.Warn("settings unreadable, using defaults", "path", path, "error", err)
		mode = defaults
	}
	return settings.NewLive(mode, store)
}

func envPermissions() permissions.Provider {
	return permissions.Env{Prefix: config.EnvPermissionsPrefix}
}

func closeQuietly(name string, c interface{ Close() error }, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("close failed", "resource", name, "error", err)
	}
}
