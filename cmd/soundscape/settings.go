package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-soundscape/internal/config"
	"github.com/teslashibe/go-soundscape/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the saved assistant mode",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved settings as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printMode(cmd, loadSettings(config.FromEnv()).Mode())
	},
}

var (
	setInterval  time.Duration
	setSafeMode  bool
	setVoice     string
	setVerbosity string
	setVoiceMode bool
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change individual settings",
	Example: `  soundscape settings set --safe-mode
  soundscape settings set --interval 3s --voice adam`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := loadSettings(config.FromEnv()).Update(settings.Defaults())
		if err != nil {
			return err
		}
		return printMode(cmd, mode)
	},
}

func init() {
	settingsCmd.PersistentFlags().StringVar(&settingsAt, "settings", "", "settings file (default $"+config.EnvSettingsPath+")")

	f := settingsSetCmd.Flags()
	f.DurationVar(&setInterval, "interval", 0, "time between captures")
	f.BoolVar(&setSafeMode, "safe-mode", false, "repeat hazard cues more often")
	f.StringVar(&setVoice, "voice", "", "voice name or ID")
	f.StringVar(&setVerbosity, "verbosity", "", "cue verbosity: normal or brief")
	f.BoolVar(&setVoiceMode, "voice-mode", false, "accept spoken commands")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	var p settings.Patch
	flags := cmd.Flags()
	if flags.Changed("interval") {
		ms := setInterval.Milliseconds()
		p.CaptureIntervalMs = &ms
	}
	if flags.Changed("safe-mode") {
		p.SafeMode = &setSafeMode
	}
	if flags.Changed("voice") {
		p.VoiceID = &setVoice
	}
	if flags.Changed("verbosity") {
		v := settings.Verbosity(setVerbosity)
		p.CueVerbosity = &v
	}
	if flags.Changed("voice-mode") {
		p.VoiceMode = &setVoiceMode
	}

	live := loadSettings(config.FromEnv())
	mode, err := live.Update(live.Mode().Apply(p))
	if err != nil {
		return err
	}
	return printMode(cmd, mode)
}

func printMode(cmd *cobra.Command, m settings.Mode) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
