package main

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-soundscape/internal/config"
	"github.com/teslashibe/go-soundscape/internal/log"
	"github.com/teslashibe/go-soundscape/pkg/assistant"
	"github.com/teslashibe/go-soundscape/pkg/capture"
	"github.com/teslashibe/go-soundscape/pkg/guidance"
	"github.com/teslashibe/go-soundscape/pkg/haptics"
	"github.com/teslashibe/go-soundscape/pkg/speechgate"
	"github.com/teslashibe/go-soundscape/pkg/web"
)

var (
	httpAddr  string
	autoStart bool
	noVoice   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run guidance and the control API",
	Long: `Starts the capture loop, the speech pipeline and the HTTP control API.

Guidance begins stopped unless --start is given. Control it with:
  POST /api/actions/start
  POST /api/actions/stop
  POST /api/actions/where_am_i
  POST /api/actions/describe_scene
  POST /api/actions/listen`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&httpAddr, "addr", ":"+config.DefaultHTTPPort, "HTTP listen address")
	f.BoolVar(&autoStart, "start", false, "start guidance immediately")
	f.BoolVar(&noVoice, "no-voice-commands", false, "disable the microphone")
	f.StringVar(&frameSource, "frames", "", "replay JPEG files from a file or directory instead of the camera")
	f.BoolVar(&audioMock, "mock-audio", false, "discard playback and record silence")
	f.StringVar(&settingsAt, "settings", "", "settings file (default $"+config.EnvSettingsPath+")")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.Component("serve")
	env := config.FromEnv()
	perms := envPermissions()
	live := loadSettings(env)

	src, camMgr, err := openFrames(env)
	if err != nil {
		return err
	}
	defer closeQuietly("camera", src, logger)

	speaker, err := newVoice(env)
	if err != nil {
		return err
	}
	defer closeQuietly("speaker", speaker, logger)

	gate := speechgate.Default()
	loop, err := capture.New(capture.Config{
		Frames:      src,
		Analyzer:    newAnalyzer(ctx, env),
		Engine:      guidance.NewEngine(nil),
		Gate:        gate,
		Speaker:     speaker,
		Haptics:     haptics.NewBeeper(log.Component("haptics")),
		Permissions: perms,
		Mode:        live,
		Logger:      log.Component("capture"),
	})
	if err != nil {
		return err
	}

	sc := assistant.Config{
		Loop:     loop,
		Locator:  newLocator(env, perms),
		Speaker:  speaker,
		Settings: live,
		Gate:     gate,
		Logger:   log.Component("assistant"),
	}
	if !noVoice {
		rec, err := newRecognizer(ctx, env, perms)
		if err != nil {
			logger.Warn("voice commands disabled", "error", err)
		} else {
			sc.Recognizer = rec
		}
	}

	session, err := assistant.New(sc)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	srv, err := web.NewServer(web.Config{
		Session: session,
		Camera:  camMgr,
		Logger:  log.Component("web"),
	})
	if err != nil {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", httpAddr)
	if err != nil {
		return err
	}

	logger.Info("soundscape ready",
		"session", session.ID(),
		"addr", ln.Addr().String(),
		"interval", live.Mode().CaptureInterval,
		"safe_mode", live.Mode().SafeMode,
	)

	if autoStart {
		if _, err := session.Dispatch(ctx, assistant.ActionStart); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gctx)
	})
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("soundscape stopped")
	return err
}
