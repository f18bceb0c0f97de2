package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/clone"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

// color bars, left to right
var bars = []color.RGBA{
	{192, 192, 192, 255},
	{192, 192, 0, 255},
	{0, 192, 192, 255},
	{0, 192, 0, 255},
	{192, 0, 192, 255},
	{192, 0, 0, 255},
	{0, 0, 192, 255},
}

// Synthetic generates test-pattern frames, for demos and for running the
// booth without a camera
type Synthetic struct {
	width  int
	height int
	fps    int

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu        sync.RWMutex
	latest    *image.RGBA
	seq       uint64
	isRunning bool
	startTime time.Time
}

// NewSynthetic creates a test-pattern source
func NewSynthetic(width, height, fps int) *Synthetic {
	if width <= 0 || height <= 0 {
		width, height = FallbackWidth, FallbackHeight
	}
	if fps <= 0 {
		fps = 15
	}
	return &Synthetic{
		width:  width,
		height: height,
		fps:    fps,
	}
}

// Start begins generating frames
func (s *Synthetic) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("synthetic source already running")
	}
	s.isRunning = true
	s.startTime = time.Now()
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	logger.WithComponent("capture").Info().
		Str("source", s.Name()).
		Int("width", s.width).
		Int("height", s.height).
		Int("fps", s.fps).
		Msg("Synthetic source starting")

	s.wg.Add(1)
	go s.generate(ctx)
	return nil
}

// Stop halts frame generation and drops the buffered frame
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.latest = nil
	frames := s.seq
	s.mu.Unlock()

	logger.WithComponent("capture").Info().
		Str("source", s.Name()).
		Uint64("frames", frames).
		Dur("duration", time.Since(s.startTime)).
		Msg("Synthetic source stopped")
	return nil
}

func (s *Synthetic) generate(ctx context.Context) {
	defer s.wg.Done()

	s.emit()

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.emit()
		}
	}
}

func (s *Synthetic) emit() {
	s.mu.RLock()
	seq := s.seq
	s.mu.RUnlock()

	frame := Pattern(s.width, s.height, seq)

	s.mu.Lock()
	s.latest = frame
	s.seq++
	s.mu.Unlock()
}

// Pattern renders color bars with a white sweep bar whose position
// advances with seq
func Pattern(width, height int, seq uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	barWidth := (width + len(bars) - 1) / len(bars)
	sweep := int(seq*4) % height

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := bars[min(x/barWidth, len(bars)-1)]
			if y >= sweep && y < sweep+8 {
				c = color.RGBA{255, 255, 255, 255}
			}
			i := img.PixOffset(x, y)
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	return img
}

// CurrentFrame returns a copy of the latest generated frame
func (s *Synthetic) CurrentFrame() (*image.RGBA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, ErrUnavailable
	}
	return clone.AsRGBA(s.latest), nil
}

// Health reports Ready once the first frame exists
func (s *Synthetic) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.isRunning && s.latest != nil {
		return Ready
	}
	return Initializing
}

// Size returns the configured frame size
func (s *Synthetic) Size() (int, int) {
	return s.width, s.height
}

// Name returns the source name
func (s *Synthetic) Name() string {
	return "synthetic"
}
