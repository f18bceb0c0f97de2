package output

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/capture"
	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/logger"
	"github.com/bryanchriswhite/photobooth/internal/overlay"
)

// BoothView is the read side of the sequencer the preview reflects
type BoothView interface {
	State() booth.State
	Settings() booth.Settings
}

// PreviewConfig configures the preview loop
type PreviewConfig struct {
	FPS    int
	Mirror bool
}

// Preview renders the live camera view: mirrored, filtered with the
// selected filter and decorated with the overlay. It never applies the
// vignette, which is reserved for captured photos.
type Preview struct {
	src     capture.Source
	booth   BoothView
	overlay *overlay.Manager
	out     Output
	config  PreviewConfig
}

// NewPreview creates a preview loop writing to out
func NewPreview(src capture.Source, b BoothView, ov *overlay.Manager, out Output, config PreviewConfig) *Preview {
	if config.FPS <= 0 {
		config.FPS = 15
	}
	if ov == nil {
		ov = overlay.NewDefaultManager()
	}
	return &Preview{
		src:     src,
		booth:   b,
		overlay: ov,
		out:     out,
		config:  config,
	}
}

// Run renders frames until ctx is cancelled
func (p *Preview) Run(ctx context.Context) error {
	log := logger.WithComponent("output")
	log.Info().Int("fps", p.config.FPS).Str("source", p.src.Name()).Msg("Preview loop started")

	ticker := time.NewTicker(time.Second / time.Duration(p.config.FPS))
	defer ticker.Stop()

	var failures int
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Preview loop stopped")
			return nil
		case <-ticker.C:
		}

		frame := p.RenderFrame()
		if err := p.out.WriteFrame(frame); err != nil {
			failures++
			if failures == 1 || failures%100 == 0 {
				log.Warn().Err(err).Int("failures", failures).Msg("Failed to write preview frame")
			}
			continue
		}
		failures = 0
	}
}

// RenderFrame produces one preview frame. When the source has no frame it
// returns a dark placeholder carrying the source's health message.
func (p *Preview) RenderFrame() *image.RGBA {
	st := p.booth.State()
	settings := p.booth.Settings()
	status := overlay.Status{
		Phase:     string(st.Phase),
		Countdown: st.Remaining,
		Shot:      st.ShotsTaken,
		Shots:     settings.ShotCount,
		Filter:    settings.Filter.Label(),
	}

	frame, err := p.src.CurrentFrame()
	if err != nil || frame == nil {
		frame = placeholder(p.src)
		status.Message = p.src.Health().Message()
	} else {
		if p.config.Mirror {
			frame = filter.Mirror(frame)
		}
		frame = filter.Apply(frame, settings.Filter)
	}

	p.overlay.SetStatus(status)
	p.overlay.Render(frame)
	return frame
}

func placeholder(src capture.Source) *image.RGBA {
	w, h := src.Size()
	if w <= 0 || h <= 0 {
		// keep placeholders small, they only carry a message
		w, h = capture.FallbackWidth/2, capture.FallbackHeight/2
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	overlay.FillRect(img, img.Bounds(), color.RGBA{20, 20, 20, 255}, 1)
	return img
}
