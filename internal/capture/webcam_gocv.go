//go:build gocv

package capture

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/clone"
	"gocv.io/x/gocv"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

// Webcam reads frames from a local video device through OpenCV
type Webcam struct {
	device string
	width  int
	height int
	fps    int

	mu      sync.RWMutex
	capture *gocv.VideoCapture
	latest  *image.RGBA
	health  Health
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWebcam creates a webcam source. device is an index ("0") or a path.
func NewWebcam(device string, width, height, fps int) *Webcam {
	if device == "" {
		device = "0"
	}
	if fps <= 0 {
		fps = 30
	}
	return &Webcam{
		device: device,
		width:  width,
		height: height,
		fps:    fps,
		health: Initializing,
	}
}

// Start opens the device and begins reading frames in the background
func (w *Webcam) Start(ctx context.Context) error {
	log := logger.WithComponent("capture")

	vc, err := gocv.OpenVideoCapture(w.device)
	if err != nil {
		h := DeviceNotFound
		if strings.Contains(strings.ToLower(err.Error()), "busy") {
			h = DeviceBusy
		}
		w.setHealth(h)
		return fmt.Errorf("failed to open device %s: %w", w.device, &HealthError{Source: w.Name(), Health: h})
	}
	if !vc.IsOpened() {
		vc.Close()
		w.setHealth(DeviceBusy)
		return &HealthError{Source: w.Name(), Health: DeviceBusy}
	}

	if w.width > 0 && w.height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(w.width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(w.height))
	}

	w.mu.Lock()
	w.capture = vc
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	log.Info().
		Str("source", w.Name()).
		Str("device", w.device).
		Int("width", w.width).
		Int("height", w.height).
		Msg("Webcam opened")

	w.wg.Add(1)
	go w.readLoop(ctx, vc)
	return nil
}

func (w *Webcam) readLoop(ctx context.Context, vc *gocv.VideoCapture) {
	defer w.wg.Done()
	log := logger.WithComponent("capture")

	mat := gocv.NewMat()
	defer mat.Close()

	interval := time.Second / time.Duration(w.fps)
	misses := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		if ok := vc.Read(&mat); !ok || mat.Empty() {
			misses++
			if misses == w.fps*5 {
				log.Warn().Str("device", w.device).Msg("Webcam stopped delivering frames")
			}
			time.Sleep(interval)
			continue
		}
		misses = 0

		img, err := mat.ToImage()
		if err != nil {
			log.Debug().Err(err).Msg("Failed to convert frame")
			continue
		}
		frame := toRGBA(img)

		w.mu.Lock()
		w.latest = frame
		w.health = Ready
		w.mu.Unlock()
	}
}

// Stop closes the device
func (w *Webcam) Stop() error {
	w.mu.Lock()
	vc := w.capture
	stopCh := w.stopCh
	w.capture = nil
	w.mu.Unlock()

	if vc == nil {
		return nil
	}
	close(stopCh)
	w.wg.Wait()

	w.mu.Lock()
	w.latest = nil
	w.health = Initializing
	w.mu.Unlock()
	return vc.Close()
}

func (w *Webcam) setHealth(h Health) {
	w.mu.Lock()
	w.health = h
	w.mu.Unlock()
}

// CurrentFrame returns a copy of the latest decoded frame
func (w *Webcam) CurrentFrame() (*image.RGBA, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.latest == nil {
		return nil, ErrUnavailable
	}
	return clone.AsRGBA(w.latest), nil
}

// Health returns the readiness state
func (w *Webcam) Health() Health {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.health
}

// Size returns the dimensions of the latest frame
func (w *Webcam) Size() (int, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.latest == nil {
		return 0, 0
	}
	b := w.latest.Bounds()
	return b.Dx(), b.Dy()
}

// Name returns the source name
func (w *Webcam) Name() string {
	return "webcam"
}
