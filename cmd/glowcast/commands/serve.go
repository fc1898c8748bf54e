package commands

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kmswan/glowcast/internal/api"
	"github.com/kmswan/glowcast/internal/config"
	"github.com/kmswan/glowcast/internal/detect"
	"github.com/kmswan/glowcast/internal/effects"
	"github.com/kmswan/glowcast/internal/logger"
	"github.com/kmswan/glowcast/internal/output"
	"github.com/kmswan/glowcast/internal/overlay"
	"github.com/kmswan/glowcast/internal/source"
	"github.com/kmswan/glowcast/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the effect pipeline and control server",
	Long: `Start the per-frame effect pipeline and the HTTP control server.

Raw frames are read from the configured input (a file, FIFO or stdin fed
by an external capture process); the composited output is served as an
MJPEG stream at /stream.`,
	Example: `  # Process the test pattern on the default port
  glowcast serve

  # Feed 720p RGBA frames from a GStreamer pipeline
  gst-launch-1.0 ... ! fdsink fd=1 | glowcast serve --config stream.yaml

  # Custom port and verbose logging
  glowcast serve --port 9090 --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}

	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			configMgr.SetPort(port)
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)
	log := logger.WithComponent("serve")
	log.Info().Str("config", configMgr.GetConfigPath()).Msg("configuration loaded")

	// Frame source: raw reader when configured, test pattern otherwise.
	var src source.Source
	if cfg.Video.Input != "" {
		src, err = source.OpenRaw(cfg.Video.Input, cfg.Video.Width, cfg.Video.Height, source.PixelFormat(cfg.Video.Format))
		if err != nil {
			return fmt.Errorf("failed to open frame source: %w", err)
		}
	} else {
		log.Info().Msg("no input configured, using test pattern")
		src = source.NewTestPattern(cfg.Video.Width, cfg.Video.Height)
	}

	// Face detector, optional: without it the pipeline runs with
	// face-dependent stages disabled.
	var detector *detect.Detector
	if cfg.Detector.Enabled {
		detector, err = detect.New(cfg.Detector.CascadePath, cfg.Detector.Params)
		if err != nil {
			log.Warn().Err(err).Msg("face detector unavailable, continuing without detections")
			detector = nil
		}
	}

	// Mascot image, optional.
	mascotImg := loadMascot(cfg.MascotPath)

	store := effects.NewStore(cfg.Effects)
	processor := effects.NewProcessor(store, float64(cfg.Video.FPS), mascotImg)

	telemetry := overlay.NewTelemetry()
	var renderer *overlay.Renderer
	if cfg.Overlay.Enabled {
		delay := time.Duration(cfg.Overlay.DelaySeconds * float64(time.Second))
		renderer = overlay.NewRenderer(cfg.Overlay.Template, telemetry, delay, "graph", "surface")
		renderer.SetPosition(cfg.Overlay.X, cfg.Overlay.Y)
	}

	mjpeg := output.NewMJPEGOutput(output.Config{
		Width:  cfg.Video.Width,
		Height: cfg.Video.Height,
		FPS:    cfg.Video.FPS,
	})
	if err := mjpeg.Start(); err != nil {
		return fmt.Errorf("failed to start output: %w", err)
	}
	defer mjpeg.Stop()

	server := api.NewServer(processor, renderer, telemetry, configMgr, mjpeg)
	go func() {
		if err := server.Start(cfg.ServerPort); err != nil {
			log.Fatal().Err(err).Msg("control server failed")
		}
	}()

	pipeline := stream.New(src, detector, processor, renderer, mjpeg, cfg.Video.FPS)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
	}()

	log.Info().
		Int("port", cfg.ServerPort).
		Str("stream", fmt.Sprintf("http://localhost:%d/stream", cfg.ServerPort)).
		Msg("glowcast running")

	if err := pipeline.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// loadMascot loads the configured mascot image, or nil when unset or
// unreadable (the mascot stage then passes through).
func loadMascot(path string) image.Image {
	if path == "" {
		return nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		logger.WithComponent("serve").Warn().Err(err).Str("path", path).Msg("failed to load mascot image")
		return nil
	}
	return img
}
