// Package booth runs photo booth sessions: the countdown, flash and
// capture timeline of a run, the photos it accumulates, and the strip
// composed from them.
package booth

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/photobooth/internal/capture"
	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/logger"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

var (
	// ErrSourceUnavailable means the frame source had no usable frame
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrCaptureSkipped marks a shot that failed inside a run that went on
	ErrCaptureSkipped = errors.New("capture skipped")

	// ErrRunActive is returned for requests that need an idle sequencer
	ErrRunActive = errors.New("run already active")
)

// Grabber supplies still frames. *capture.Grabber satisfies it.
type Grabber interface {
	Grab() (*image.RGBA, error)
}

// Timing holds the run's delays
type Timing struct {
	Countdown int
	Tick      time.Duration
	Flash     time.Duration
	Pause     time.Duration
	Shutter   time.Duration
	Debounce  time.Duration
}

// DefaultTiming is a 3-second countdown, 200ms flash, 1.5s between shots,
// 300ms shutter delay for single shots and 500ms before composing
func DefaultTiming() Timing {
	return Timing{
		Countdown: 3,
		Tick:      time.Second,
		Flash:     200 * time.Millisecond,
		Pause:     1500 * time.Millisecond,
		Shutter:   300 * time.Millisecond,
		Debounce:  500 * time.Millisecond,
	}
}

// Options configures a Sequencer. Zero values select defaults.
type Options struct {
	Clock    clockwork.Clock
	Settings Settings
	Timing   *Timing
	// Mirror flips captured frames horizontally, matching a selfie preview
	Mirror bool
	// Rand drives grain placement. Nil uses an unseeded source.
	Rand *rand.Rand
	// Encoder serializes each composed strip. Nil uses PNG.
	Encoder imgio.Encoder
	// OnStrip is called outside the sequencer lock after each composition
	OnStrip func(*strip.Strip)
}

// Sequencer is the single capture state machine. All timers run on one
// logical timeline: at most one is pending, and every callback checks the
// run generation before touching state, so a retake invalidates callbacks
// already in flight.
type Sequencer struct {
	grabber Grabber
	clock   clockwork.Clock
	timing  Timing
	mirror  bool
	encoder imgio.Encoder
	onStrip func(*strip.Strip)

	rngMu sync.Mutex
	rng   *rand.Rand

	mu          sync.Mutex
	state       State
	plan        plan
	session     Session
	runSettings Settings
	strip       *strip.Strip
	gen         uint64
	timer       clockwork.Timer
	runID       string
	log         *zerolog.Logger

	events *broadcaster
}

// New creates an idle sequencer pulling frames from g
func New(g Grabber, opts Options) (*Sequencer, error) {
	settings := opts.Settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	timing := DefaultTiming()
	if opts.Timing != nil {
		timing = *opts.Timing
	}
	if timing.Countdown < 1 {
		timing.Countdown = 1
	}

	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	enc := opts.Encoder
	if enc == nil {
		enc = imgio.PNGEncoder()
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Sequencer{
		grabber: g,
		clock:   clk,
		timing:  timing,
		mirror:  opts.Mirror,
		encoder: enc,
		onStrip: opts.OnStrip,
		rng:     rng,
		state:   State{Phase: Idle},
		session: Session{Settings: settings},
		log:     logger.WithComponent("booth"),
		events:  newBroadcaster(),
	}, nil
}

// Start begins a run. Starting while a run is active does nothing and
// returns ErrRunActive.
func (s *Sequencer) Start(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Active() {
		s.log.Debug().Str("state", s.state.String()).Msg("Start ignored, run active")
		return ErrRunActive
	}

	s.gen++
	s.runID = uuid.NewString()
	s.log = logger.WithRun("booth", s.runID)
	s.runSettings = s.session.Settings
	s.plan = plan{
		mode:      mode,
		shots:     s.runSettings.ShotCount,
		countdown: s.timing.Countdown,
	}

	if mode == Multi {
		s.session.Photos = nil
		s.strip = nil
	}

	s.log.Info().
		Str("mode", mode.String()).
		Int("shots", s.plan.shots).
		Str("filter", string(s.runSettings.Filter)).
		Msg("Run started")

	s.apply(inStart)
	return nil
}

// Retake cancels any run, clears photos and the strip, and returns to Idle
func (s *Sequencer) Retake() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.session.Photos = nil
	s.strip = nil

	s.log.Info().Str("from", s.state.String()).Msg("Retake")
	s.apply(inRetake)
	s.emit(Event{Type: EventReset})
}

// UpdateSettings replaces the settings used by the next run. It returns
// the normalized settings.
func (s *Sequencer) UpdateSettings(settings Settings) (Settings, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Active() {
		return Settings{}, ErrRunActive
	}
	s.session.Settings = settings
	s.log.Debug().Interface("settings", settings).Msg("Settings updated")
	return settings, nil
}

// SetFilter changes the filter for the live preview and the next run.
// A run in progress keeps the filter it started with.
func (s *Sequencer) SetFilter(k filter.Kind) error {
	if !k.Valid() {
		return fmt.Errorf("invalid filter %q", k)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Settings.Filter = k
	return nil
}

// State returns the current state
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Settings returns the settings for the next run
func (s *Sequencer) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Settings
}

// Photos returns the photos captured so far
func (s *Sequencer) Photos() []CapturedPhoto {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedPhoto, len(s.session.Photos))
	copy(out, s.session.Photos)
	return out
}

// Strip returns the last composed strip, or nil
func (s *Sequencer) Strip() *strip.Strip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strip
}

// RunID identifies the current or most recent run
func (s *Sequencer) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Subscribe returns a channel of events and a function that ends the
// subscription
func (s *Sequencer) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}

// apply feeds one input to the state machine and performs the effects of
// the new state. Caller holds s.mu.
func (s *Sequencer) apply(in input) {
	prev := s.state
	next := transition(prev, in, s.plan)
	if next == prev && in != inRetake {
		s.log.Debug().Str("state", prev.String()).Str("input", in.String()).Msg("Input ignored")
		return
	}
	s.state = next
	s.log.Debug().
		Str("from", prev.String()).
		Str("to", next.String()).
		Str("input", in.String()).
		Msg("Transition")
	s.emit(Event{Type: EventState})
	s.enter()
}

// enter schedules whatever the current state waits on. Caller holds s.mu.
func (s *Sequencer) enter() {
	switch s.state.Phase {
	case CountingDown:
		s.after(s.timing.Tick, func() { s.apply(inTick) })
	case Flashing:
		s.after(s.timing.Flash, func() { s.apply(inFlashed) })
	case Capturing:
		delay := time.Duration(0)
		if s.plan.mode == Single {
			delay = s.timing.Shutter
		}
		gen := s.gen
		s.timer = s.clock.AfterFunc(delay, func() { s.capture(gen) })
	case Pausing:
		s.after(s.timing.Pause, func() { s.apply(inPaused) })
	case Done:
		gen := s.gen
		s.timer = s.clock.AfterFunc(s.timing.Debounce, func() { s.compose(gen) })
	}
}

// after schedules step to run under the lock if the run is still current
func (s *Sequencer) after(d time.Duration, step func()) {
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.timer = nil
		step()
	})
}

// capture pulls and processes one frame without holding the lock, then
// records the result if the run is still current
func (s *Sequencer) capture(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state.Phase != Capturing {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	settings := s.runSettings
	shot := s.state.ShotsTaken + 1
	s.mu.Unlock()

	photo, err := s.takePhoto(settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug().Int("shot", shot).Msg("Discarding capture from cancelled run")
		return
	}

	if err != nil {
		skipped := fmt.Errorf("%w: shot %d: %w", ErrCaptureSkipped, shot, err)
		s.log.Warn().Err(err).Int("shot", shot).Msg("Capture skipped")
		s.emit(Event{
			Type:      EventCaptureSkipped,
			Shot:      shot,
			Err:       skipped,
			Retryable: true,
			Message:   failureMessage(err),
		})
	} else {
		if s.plan.mode == Single {
			s.session.Photos = []CapturedPhoto{photo}
			s.strip = nil
		} else {
			s.session.Photos = append(s.session.Photos, photo)
		}
		s.log.Info().Int("shot", shot).Int("photos", len(s.session.Photos)).Msg("Photo captured")
		s.emit(Event{Type: EventCapture, Shot: shot})
	}
	s.apply(inCaptured)
}

func (s *Sequencer) takePhoto(settings Settings) (CapturedPhoto, error) {
	img, err := s.grabber.Grab()
	if err != nil {
		return CapturedPhoto{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if img == nil || capture.IsBlank(img) {
		return CapturedPhoto{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, capture.ErrBlankFrame)
	}

	if s.mirror {
		img = filter.Mirror(img)
	}
	img = filter.Apply(img, settings.Filter)

	s.rngMu.Lock()
	img = filter.Vignette(img, s.rng)
	s.rngMu.Unlock()

	return CapturedPhoto{Image: img, TakenAt: s.clock.Now()}, nil
}

// compose builds and encodes the strip from the run's photos, then returns
// to Idle. Either step failing ends the run with a retryable error.
func (s *Sequencer) compose(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state.Phase != Done {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	images := s.session.images()
	opts := s.runSettings.StripOptions()
	now := s.clock.Now()
	s.mu.Unlock()

	composed, err := strip.Compose(images, opts, now)
	message := "Could not create the photo strip. Retake to try again."
	if err == nil {
		if err = composed.EncodeWith(s.encoder); err != nil {
			message = "Could not save the photo strip. Retake to try again."
		}
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.log.Error().Err(err).Int("photos", len(images)).Msg("Composition failed")
		s.emit(Event{
			Type:      EventError,
			Err:       err,
			Retryable: true,
			Message:   message,
		})
	} else {
		s.strip = composed
		s.log.Info().
			Int("photos", composed.Photos).
			Int("width", composed.Bounds().Dx()).
			Int("height", composed.Bounds().Dy()).
			Int("bytes", len(composed.PNG)).
			Msg("Strip composed")
		s.emit(Event{Type: EventComposed})
	}
	s.apply(inComposed)
	onStrip := s.onStrip
	s.mu.Unlock()

	if err == nil && onStrip != nil {
		onStrip(composed)
	}
}

// emit stamps and publishes an event. Caller holds s.mu.
func (s *Sequencer) emit(e Event) {
	e.RunID = s.runID
	e.State = s.state
	e.Photos = len(s.session.Photos)
	e.Time = s.clock.Now()
	if e.Err != nil {
		e.Error = e.Err.Error()
	}
	s.events.publish(e)
}

func failureMessage(err error) string {
	var he *capture.HealthError
	if errors.As(err, &he) {
		return he.Health.Message()
	}
	return "Capture failed, the run will continue. Retake if the strip is missing a photo."
}
