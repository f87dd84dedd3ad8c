// Soundscape is a camera-based walking assistant for blind and low-vision
// pedestrians. It narrates crossings and obstacles and answers voice
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-soundscape/internal/config"
	"github.com/teslashibe/go-soundscape/internal/log"
)

var (
	// Global flags
	logLevel string
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "soundscape",
	Short: "Spoken pedestrian guidance from a body-worn camera",
	Long: `Soundscape watches the path ahead through a camera, asks a vision model
what it sees, and speaks short cues about crosswalks, signals and obstacles.

Run "soundscape serve" to start guidance with the control API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadEnv(envFiles...)
		log.Init(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", []string{".env"}, "dotenv files to load")

	rootCmd.AddCommand(serveCmd, describeCmd, listenCmd, settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
