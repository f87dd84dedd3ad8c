package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-soundscape/internal/config"
	"github.com/teslashibe/go-soundscape/internal/log"
	"github.com/teslashibe/go-soundscape/pkg/capture"
	"github.com/teslashibe/go-soundscape/pkg/voicecmd"
)

var speakResult bool

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Capture one frame and print its narration",
	Args:  cobra.NoArgs,
	RunE:  runDescribe,
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Record one voice command and print what was heard",
	Args:  cobra.NoArgs,
	RunE:  runListen,
}

func init() {
	describeCmd.Flags().StringVar(&frameSource, "frames", "", "read a JPEG file or directory instead of the camera")
	describeCmd.Flags().BoolVar(&speakResult, "speak", false, "also speak the narration")
	describeCmd.Flags().BoolVar(&audioMock, "mock-audio", false, "discard playback")

	listenCmd.Flags().BoolVar(&audioMock, "mock-audio", false, "record silence instead of the microphone")
}

// printSpeaker discards guidance; one-shot commands print their result.
type printSpeaker struct{}

func (printSpeaker) Say(text, voiceID string) {}

func runDescribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := log.Component("describe")
	env := config.FromEnv()
	live := loadSettings(env)

	src, _, err := openFrames(env)
	if err != nil {
		return err
	}
	defer closeQuietly("camera", src, logger)

	loop, err := capture.New(capture.Config{
		Frames:      src,
		Analyzer:    newAnalyzer(ctx, env),
		Speaker:     printSpeaker{},
		Permissions: envPermissions(),
		Mode:        live,
		Logger:      log.Component("capture"),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	narration, err := loop.DescribeScene(ctx)
	if err != nil {
		return err
	}
	logger.Debug("scene described", "latency", time.Since(start))
	fmt.Fprintln(cmd.OutOrStdout(), narration)

	if !speakResult {
		return nil
	}
	speaker, err := newVoice(env)
	if err != nil {
		return err
	}
	defer closeQuietly("speaker", speaker, logger)
	speaker.Speak(ctx, narration, live.Mode().VoiceID)
	return nil
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env := config.FromEnv()

	rec, err := newRecognizer(ctx, env, envPermissions())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Listening for %s...\n", voicecmd.RecordWindow)
	res, err := rec.Recognize(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "command:    %s\n", res.Command)
	fmt.Fprintf(out, "transcript: %q\n", res.Transcript)
	return nil
}
