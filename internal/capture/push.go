package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"sync/atomic"

	"github.com/anthonynsimon/bild/clone"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

// Push is a source fed by an external producer, typically the browser
// streaming camera frames over a WebSocket. Device permission negotiation
// happens on the producer side; failures are reported with ReportError.
//
// Frames go into a single-slot mailbox: a newer frame replaces an unread
// one, so readers always see the freshest complete frame.
type Push struct {
	mu        sync.RWMutex
	latest    *image.RGBA
	health    Health
	started   bool
	producers int

	frames uint64
	drops  uint64
}

// NewPush creates an idle push source
func NewPush() *Push {
	return &Push{health: Initializing}
}

// Start marks the source as accepting frames
func (p *Push) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}
	p.started = true
	p.health = Initializing
	logger.WithComponent("capture").Info().Str("source", p.Name()).Msg("Waiting for pushed frames")
	return nil
}

// Stop drops the buffered frame and stops accepting new ones
func (p *Push) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil
	}
	p.started = false
	p.latest = nil
	p.health = Initializing
	logger.WithComponent("capture").Info().
		Str("source", p.Name()).
		Uint64("frames", atomic.LoadUint64(&p.frames)).
		Uint64("replaced", atomic.LoadUint64(&p.drops)).
		Msg("Push source stopped")
	return nil
}

// Publish stores img as the latest frame. The image is copied, so the
// producer keeps ownership of its buffer.
func (p *Push) Publish(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("empty frame")
	}
	frame := toRGBA(img)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return fmt.Errorf("push source not started")
	}
	if p.latest != nil {
		atomic.AddUint64(&p.drops, 1)
	}
	p.latest = frame
	p.health = Ready
	atomic.AddUint64(&p.frames, 1)
	return nil
}

// PublishEncoded decodes a JPEG or PNG payload and publishes it
func (p *Push) PublishEncoded(data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	return p.Publish(img)
}

// Connect registers a producer. Frames are only trusted while at least
// one producer is connected.
func (p *Push) Connect() {
	p.mu.Lock()
	p.producers++
	n := p.producers
	p.mu.Unlock()

	logger.WithComponent("capture").Debug().Str("source", p.Name()).Int("producers", n).Msg("Producer connected")
}

// Disconnect unregisters a producer. When the last one leaves the buffered
// frame is dropped and a Ready source goes back to Initializing; a reported
// failure is kept so its message stays visible.
func (p *Push) Disconnect() {
	p.mu.Lock()
	if p.producers > 0 {
		p.producers--
	}
	n := p.producers
	if n == 0 {
		p.latest = nil
		if p.health == Ready {
			p.health = Initializing
		}
	}
	h := p.health
	p.mu.Unlock()

	logger.WithComponent("capture").Info().
		Str("source", p.Name()).
		Int("producers", n).
		Str("health", string(h)).
		Msg("Producer disconnected")
}

// ReportError records a producer-side failure such as a denied permission
func (p *Push) ReportError(name string) Health {
	h := HealthFromBrowserError(name)

	p.mu.Lock()
	p.health = h
	p.latest = nil
	p.mu.Unlock()

	logger.WithComponent("capture").Warn().
		Str("source", p.Name()).
		Str("error", name).
		Str("health", string(h)).
		Msg("Producer reported camera failure")
	return h
}

// CurrentFrame returns a copy of the latest pushed frame
func (p *Push) CurrentFrame() (*image.RGBA, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.latest == nil {
		return nil, ErrUnavailable
	}
	return clone.AsRGBA(p.latest), nil
}

// Health returns the current readiness state
func (p *Push) Health() Health {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

// Size returns the dimensions of the latest frame
func (p *Push) Size() (int, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.latest == nil {
		return 0, 0
	}
	b := p.latest.Bounds()
	return b.Dx(), b.Dy()
}

// Name returns the source name
func (p *Push) Name() string {
	return "push"
}

// Frames returns how many frames have been published
func (p *Push) Frames() uint64 {
	return atomic.LoadUint64(&p.frames)
}
