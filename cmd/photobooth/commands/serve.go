package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/photobooth/internal/api"
	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/capture"
	"github.com/bryanchriswhite/photobooth/internal/logger"
	"github.com/bryanchriswhite/photobooth/internal/output"
	"github.com/bryanchriswhite/photobooth/internal/overlay"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the photo booth server",
	Long: `Start the photo booth HTTP server.

The server opens the configured camera source, streams a live preview at
/stream, and exposes the booth over a REST and WebSocket API. Open the root
page in a browser to use the booth.`,
	Example: `  # Start server on default port (8080)
  photobooth serve

  # Start server on custom port
  photobooth serve --port 9090

  # Use the generated test pattern instead of a camera
  photobooth serve --source synthetic

  # Start with debug logging
  photobooth serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithComponent("serve")
	log.Info().Str("path", configMgr.GetConfigPath()).Str("log_level", cfg.LogLevel).Msg("Configuration loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src, err := capture.Open(cfg.Camera.CaptureConfig())
	if err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	if err := src.Start(ctx); err != nil {
		// keep serving so the UI can show the health message
		log.Error().Err(err).Str("source", src.Name()).Msg("Failed to start camera")
	}
	defer src.Stop()

	grabber := capture.NewGrabber(src, cfg.Camera.ReadyTimeout)
	go func() {
		if err := grabber.Await(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Str("message", src.Health().Message()).Msg("Camera not available")
		}
	}()

	var onStrip func(*strip.Strip)
	if cfg.Output.SaveStrips {
		sink, err := output.NewFileSink(cfg.Output.Directory)
		if err != nil {
			return err
		}
		onStrip = sink.OnStrip
		log.Info().Str("dir", sink.Dir()).Msg("Saving strips")
	}

	seq, err := booth.New(grabber, booth.Options{
		Settings: cfg.Booth,
		Mirror:   cfg.Camera.Mirror,
		OnStrip:  onStrip,
	})
	if err != nil {
		return fmt.Errorf("failed to create booth: %w", err)
	}
	defer seq.Retake()

	mjpegOut := output.NewMJPEGOutput(output.Config{FPS: cfg.Camera.FPS})
	if err := mjpegOut.Start(); err != nil {
		return fmt.Errorf("failed to start MJPEG output: %w", err)
	}
	defer mjpegOut.Stop()

	preview := output.NewPreview(src, seq, overlay.NewDefaultManager(), mjpegOut, output.PreviewConfig{
		FPS:    cfg.Camera.FPS,
		Mirror: cfg.Camera.Mirror,
	})
	go preview.Run(ctx)

	push, _ := src.(*capture.Push)
	server := api.NewServer(api.Deps{
		Booth:  seq,
		Source: src,
		Push:   push,
		Stream: mjpegOut,
		Config: configMgr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ServerPort)
	}()

	fmt.Println()
	fmt.Println("📸 Photobooth is running!")
	fmt.Printf("   - Booth: http://localhost:%d\n", cfg.ServerPort)
	fmt.Printf("   - Preview: http://localhost:%d/stream\n", cfg.ServerPort)
	fmt.Printf("   - API: http://localhost:%d/api\n", cfg.ServerPort)
	fmt.Printf("   - Camera: %s\n", src.Name())
	fmt.Println("   - Press Ctrl+C to stop")
	fmt.Println()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	// MJPEG clients hold their connection open until the output stops
	mjpegOut.Stop()
	return server.Shutdown(shutdownCtx)
}
