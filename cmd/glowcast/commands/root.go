package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "glowcast",
		Short: "Glowcast - live stream face effects and telemetry overlay",
		Long: `Glowcast sits between a capture source and a streaming encoder and
composites real-time effects onto every frame:

  • Face-confined color adjustment and blur
  • Shape warp ("beautify") with smooth fade on detection loss
  • Skin smoothing on the fast surface path
  • Mascot overlay on open mouths
  • Landmark mesh debug view
  • Telemetry text overlay (clock, bitrate, speed, altitude, distance)

Frames arrive as raw buffers from an external capture process, faces are
detected with a pure-Go cascade, and the composited output is served as an
MJPEG stream alongside a REST/WebSocket control API.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/glowcast/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path.
func GetConfigFile() string {
	return cfgFile
}
