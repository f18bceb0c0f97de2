package capture

import (
	"context"
	"errors"
	"image"
	"image/draw"
)

// Fallback frame size used when a source has not reported its dimensions
const (
	FallbackWidth  = 1280
	FallbackHeight = 720
)

var (
	// ErrUnavailable means no complete frame can be read right now
	ErrUnavailable = errors.New("frame unavailable")

	// ErrBlankFrame means the source produced a frame with every byte zero,
	// which is a failed read rather than a black photo
	ErrBlankFrame = errors.New("blank frame")
)

// Source defines the interface for camera frame backends
type Source interface {
	// Start acquires the device or stream. Health reports progress.
	Start(ctx context.Context) error

	// Stop releases the device. It is safe to call more than once.
	Stop() error

	// CurrentFrame returns a copy of the latest fully decoded frame owned
	// by the caller, or ErrUnavailable. It never returns a partial frame.
	CurrentFrame() (*image.RGBA, error)

	// Health returns the source's readiness state
	Health() Health

	// Size returns the frame dimensions, or zero before the first frame
	Size() (width, height int)

	// Name returns a human-readable name for this source
	Name() string
}

// IsBlank reports whether every byte of the frame is zero
func IsBlank(img *image.RGBA) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	if b.Empty() {
		return true
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for _, v := range img.Pix[off : off+4*b.Dx()] {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// toRGBA copies any image into a new zero-origin RGBA buffer
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
