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

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/capture"
	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/logger"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Take a photo strip from the command line",
	Long: `Run one capture session against the configured camera without a browser
and write the composed strip as PNG.

The session uses the same countdown, flash and pause timings as the booth.
The browser push source cannot be used here; pick a webcam, directory,
screen or synthetic source.`,
	Example: `  # Three shots with the configured defaults
  photobooth snap

  # Two sepia shots side by side with a caption
  photobooth snap --shots 2 --filter sepia --layout horizontal --caption "Best Day"

  # Write to a specific file using the webcam
  photobooth snap --source webcam --out strip.png`,
	RunE: runSnap,
}

var (
	snapShots      int
	snapFilter     string
	snapLayout     string
	snapFrameColor string
	snapCaption    string
	snapNoDate     bool
	snapOut        string
	snapCountdown  int
)

func init() {
	rootCmd.AddCommand(snapCmd)

	snapCmd.Flags().IntVarP(&snapShots, "shots", "n", 0, "number of shots, 1-4 (default from config)")
	snapCmd.Flags().StringVar(&snapFilter, "filter", "", "color filter (see 'photobooth filters')")
	snapCmd.Flags().StringVar(&snapLayout, "layout", "", "strip layout (vertical or horizontal)")
	snapCmd.Flags().StringVar(&snapFrameColor, "frame-color", "", "frame color (white, cream, black, dustypink)")
	snapCmd.Flags().StringVar(&snapCaption, "caption", "", "caption, up to 30 characters")
	snapCmd.Flags().BoolVar(&snapNoDate, "no-date", false, "leave the date off the strip")
	snapCmd.Flags().StringVarP(&snapOut, "out", "o", "", "output file (default photo-strip-<ms>.png)")
	snapCmd.Flags().IntVar(&snapCountdown, "countdown", 3, "countdown seconds before each shot")
}

// snapSettings applies the command flags over the configured defaults
func snapSettings(cmd *cobra.Command, base booth.Settings) (booth.Settings, error) {
	s := base
	if cmd.Flags().Changed("shots") {
		s.ShotCount = snapShots
	}
	if snapFilter != "" {
		k, err := filter.Parse(snapFilter)
		if err != nil {
			return s, err
		}
		s.Filter = k
	}
	if snapLayout != "" {
		l, err := strip.ParseLayout(snapLayout)
		if err != nil {
			return s, err
		}
		s.Layout = l
	}
	if snapFrameColor != "" {
		c, err := strip.ParseFrameColor(snapFrameColor)
		if err != nil {
			return s, err
		}
		s.FrameColor = c
	}
	if cmd.Flags().Changed("caption") {
		s.Caption = snapCaption
	}
	if snapNoDate {
		s.IncludeDate = false
	}
	s = s.Normalize()
	return s, s.Validate()
}

func runSnap(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := snapSettings(cmd, cfg.Booth)
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	src, err := capture.Open(cfg.Camera.CaptureConfig())
	if err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	if _, ok := src.(*capture.Push); ok {
		return fmt.Errorf("the browser camera source needs 'photobooth serve'; use --source webcam, directory, screen or synthetic")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("failed to start camera: %w", err)
	}
	defer src.Stop()

	grabber := capture.NewGrabber(src, cfg.Camera.ReadyTimeout)
	if err := grabber.Await(ctx); err != nil {
		var he *capture.HealthError
		if errors.As(err, &he) {
			return fmt.Errorf("%s", he.Health.Message())
		}
		return err
	}

	timing := booth.DefaultTiming()
	timing.Countdown = snapCountdown
	seq, err := booth.New(grabber, booth.Options{
		Settings: settings,
		Timing:   &timing,
		Mirror:   cfg.Camera.Mirror,
	})
	if err != nil {
		return err
	}
	defer seq.Retake()

	events, unsubscribe := seq.Subscribe()
	defer unsubscribe()

	if err := seq.Start(booth.Multi); err != nil {
		return err
	}

	// generous bound: countdowns, flashes and pauses for four shots
	deadline := time.After(time.Minute + time.Duration(settings.ShotCount*snapCountdown)*time.Second)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("timed out waiting for the strip")
		case e := <-events:
			switch e.Type {
			case booth.EventState:
				if e.State.Phase == booth.CountingDown {
					fmt.Printf("Shot %d of %d: %d...\n", e.State.ShotsTaken+1, settings.ShotCount, e.State.Remaining)
				}
			case booth.EventCapture:
				fmt.Printf("📸 Shot %d captured\n", e.Shot)
			case booth.EventCaptureSkipped:
				fmt.Printf("⚠️  Shot %d skipped: %s\n", e.Shot, e.Message)
			case booth.EventError:
				return fmt.Errorf("%s", e.Message)
			case booth.EventComposed:
				return writeStrip(seq.Strip())
			}
		}
	}
}

func writeStrip(s *strip.Strip) error {
	if s == nil {
		return fmt.Errorf("no strip composed")
	}
	path := snapOut
	if path == "" {
		path = strip.Filename(s.Date)
	}
	data, err := s.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write strip: %w", err)
	}

	b := s.Bounds()
	logger.WithComponent("snap").Info().
		Str("path", path).
		Int("photos", s.Photos).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("Strip written")
	fmt.Printf("✅ Strip saved to %s (%dx%d)\n", path, b.Dx(), b.Dy())
	return nil
}
