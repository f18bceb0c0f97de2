//go:build !gocv

package capture

import (
	"context"
	"image"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

// Webcam is unavailable in builds without OpenCV. Build with -tags gocv
// to read local video devices.
type Webcam struct {
	device string
}

// NewWebcam creates a webcam source that always reports Unsupported
func NewWebcam(device string, width, height, fps int) *Webcam {
	return &Webcam{device: device}
}

// Start always fails with an Unsupported health error
func (w *Webcam) Start(ctx context.Context) error {
	logger.WithComponent("capture").Error().
		Str("device", w.device).
		Msg("Webcam support not compiled in, rebuild with -tags gocv")
	return &HealthError{Source: w.Name(), Health: Unsupported}
}

func (w *Webcam) Stop() error { return nil }

func (w *Webcam) CurrentFrame() (*image.RGBA, error) { return nil, ErrUnavailable }

func (w *Webcam) Health() Health { return Unsupported }

func (w *Webcam) Size() (int, int) { return 0, 0 }

func (w *Webcam) Name() string { return "webcam" }
