package capture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/anthonynsimon/bild/clone"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

// Screen captures a region of the X11 root window, for rigs where the
// camera feed is shown by another application (a DSLR live view, a
// v4l2loopback viewer) rather than exposed as a device.
type Screen struct {
	x, y          int
	width, height int
	fps           int

	mu      sync.RWMutex
	conn    *xgb.Conn
	root    xproto.Window
	depth   byte
	latest  *image.RGBA
	health  Health
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScreen creates a screen-region source. A zero width or height
// captures the whole root window.
func NewScreen(x, y, width, height, fps int) *Screen {
	if fps <= 0 {
		fps = 10
	}
	return &Screen{
		x:      x,
		y:      y,
		width:  width,
		height: height,
		fps:    fps,
		health: Initializing,
	}
}

// Start connects to the X server and begins polling the region
func (s *Screen) Start(ctx context.Context) error {
	log := logger.WithComponent("capture")

	conn, err := xgb.NewConn()
	if err != nil {
		s.setHealth(DeviceNotFound)
		return fmt.Errorf("failed to connect to X server: %w", &HealthError{Source: s.Name(), Health: DeviceNotFound})
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	if screen.RootDepth != 24 && screen.RootDepth != 32 {
		conn.Close()
		s.setHealth(Unsupported)
		return fmt.Errorf("root depth %d: %w", screen.RootDepth, &HealthError{Source: s.Name(), Health: Unsupported})
	}

	s.mu.Lock()
	s.conn = conn
	s.root = screen.Root
	s.depth = screen.RootDepth
	if s.width <= 0 || s.height <= 0 {
		s.x, s.y = 0, 0
		s.width, s.height = int(screen.WidthInPixels), int(screen.HeightInPixels)
	}
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	log.Info().
		Str("source", s.Name()).
		Int("x", s.x).
		Int("y", s.y).
		Int("width", s.width).
		Int("height", s.height).
		Msg("Capturing screen region")

	s.wg.Add(1)
	go s.poll(ctx)
	return nil
}

func (s *Screen) poll(ctx context.Context) {
	defer s.wg.Done()
	log := logger.WithComponent("capture")

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		frame, err := s.captureRegion()
		if err != nil {
			log.Debug().Err(err).Msg("Screen capture failed")
		} else {
			s.mu.Lock()
			s.latest = frame
			s.health = Ready
			s.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
		}
	}
}

func (s *Screen) captureRegion() (*image.RGBA, error) {
	reply, err := xproto.GetImage(
		s.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(s.root),
		int16(s.x), int16(s.y),
		uint16(s.width), uint16(s.height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return bgraToRGBA(reply.Data, s.width, s.height), nil
}

// bgraToRGBA converts a 32bpp ZPixmap into an opaque RGBA image
func bgraToRGBA(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	n := min(len(data), len(img.Pix))
	for i := 0; i+3 < n; i += 4 {
		img.Pix[i] = data[i+2]
		img.Pix[i+1] = data[i+1]
		img.Pix[i+2] = data[i]
		img.Pix[i+3] = 255
	}
	return img
}

// Stop closes the X connection
func (s *Screen) Stop() error {
	s.mu.Lock()
	conn := s.conn
	stopCh := s.stopCh
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	close(stopCh)
	s.wg.Wait()
	conn.Close()

	s.mu.Lock()
	s.latest = nil
	s.health = Initializing
	s.mu.Unlock()
	return nil
}

func (s *Screen) setHealth(h Health) {
	s.mu.Lock()
	s.health = h
	s.mu.Unlock()
}

// CurrentFrame returns a copy of the last captured region
func (s *Screen) CurrentFrame() (*image.RGBA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, ErrUnavailable
	}
	return clone.AsRGBA(s.latest), nil
}

// Health returns the readiness state
func (s *Screen) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// Size returns the region size
func (s *Screen) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// Name returns the source name
func (s *Screen) Name() string {
	return "screen"
}
