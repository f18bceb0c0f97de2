package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

const (
	// DefaultReadyTimeout bounds how long callers wait for a source to become ready
	DefaultReadyTimeout = 10 * time.Second

	readyPollInterval = 50 * time.Millisecond
)

// ErrNotReady is returned when a source does not become ready in time
var ErrNotReady = errors.New("source not ready")

// WaitReady polls src until it reports Ready, fails terminally, or timeout
// elapses. A terminal health state returns a *HealthError immediately.
func WaitReady(ctx context.Context, src Source, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		h := src.Health()
		if h == Ready {
			return nil
		}
		if h.Terminal() {
			return &HealthError{Source: src.Name(), Health: h}
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w after %v (health=%s)", ErrNotReady, timeout, h)
		case <-ticker.C:
		}
	}
}

// Grabber pulls still frames for the capture sequence and owns the
// readiness contract: wait once with a bounded timeout, then grab
// best-effort and reject blank frames.
type Grabber struct {
	src     Source
	timeout time.Duration

	mu       sync.Mutex
	awaited  bool
	timedOut bool
}

// NewGrabber wraps a source. A zero timeout uses DefaultReadyTimeout.
func NewGrabber(src Source, timeout time.Duration) *Grabber {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	return &Grabber{src: src, timeout: timeout}
}

// Source returns the wrapped source
func (g *Grabber) Source() Source {
	return g.src
}

// Await blocks until the source is ready or the readiness timeout passes.
// A timeout is not an error: later grabs proceed best-effort. Terminal
// health states and context cancellation are returned.
func (g *Grabber) Await(ctx context.Context) error {
	log := logger.WithComponent("capture")

	err := WaitReady(ctx, g.src, g.timeout)

	g.mu.Lock()
	g.awaited = true
	g.timedOut = errors.Is(err, ErrNotReady)
	g.mu.Unlock()

	switch {
	case err == nil:
		w, h := g.src.Size()
		log.Info().
			Str("source", g.src.Name()).
			Int("width", w).
			Int("height", h).
			Msg("Camera ready")
		return nil
	case errors.Is(err, ErrNotReady):
		log.Warn().
			Str("source", g.src.Name()).
			Dur("timeout", g.timeout).
			Msg("Camera not ready in time, captures will be best-effort")
		return nil
	default:
		log.Error().Err(err).Str("source", g.src.Name()).Msg("Camera unavailable")
		return err
	}
}

// TimedOut reports whether Await gave up waiting for readiness
func (g *Grabber) TimedOut() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timedOut
}

// Grab returns one frame owned by the caller. The first grab waits for
// readiness like Await when nothing has waited yet. It fails with an error
// wrapping ErrUnavailable when the source cannot supply a usable frame.
func (g *Grabber) Grab() (*image.RGBA, error) {
	g.mu.Lock()
	awaited := g.awaited
	g.mu.Unlock()
	if !awaited {
		// terminal states are reported below
		g.Await(context.Background())
	}

	h := g.src.Health()
	if h.Terminal() {
		return nil, &HealthError{Source: g.src.Name(), Health: h}
	}

	img, err := g.src.CurrentFrame()
	if err != nil {
		return nil, fmt.Errorf("%s (health=%s): %w", g.src.Name(), h, err)
	}
	if IsBlank(img) {
		return nil, fmt.Errorf("%s: %w: %w", g.src.Name(), ErrBlankFrame, ErrUnavailable)
	}
	return img, nil
}

// Size returns the source dimensions, or the fallback size when unknown
func (g *Grabber) Size() (int, int) {
	w, h := g.src.Size()
	if w <= 0 || h <= 0 {
		return FallbackWidth, FallbackHeight
	}
	return w, h
}
