// Package boothtest drives sequencer timelines in tests.
//
// clockwork's fake clock runs AfterFunc callbacks on their own goroutines,
// and a callback that schedules the next step does so after Advance has
// already moved time. Clock steps through due timers one at a time and
// waits for each callback to return, so a single Advance plays out a whole
// run and assertions see a settled sequencer.
package boothtest

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is a clockwork fake clock that fires timers in deadline order and
// waits for their callbacks
type Clock struct {
	*clockwork.FakeClock

	mu     sync.Mutex
	timers []*timer
}

type timer struct {
	clockwork.Timer
	c       *Clock
	at      time.Time
	done    chan struct{}
	stopped bool
}

// NewClock creates a clock starting at start
func NewClock(start time.Time) *Clock {
	return &Clock{FakeClock: clockwork.NewFakeClockAt(start)}
}

// AfterFunc schedules f on the fake clock and tracks it for Advance
func (c *Clock) AfterFunc(d time.Duration, f func()) clockwork.Timer {
	t := &timer{c: c, at: c.Now().Add(d), done: make(chan struct{})}

	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()

	t.Timer = c.FakeClock.AfterFunc(d, func() {
		defer close(t.done)
		f()
	})
	return t
}

func (t *timer) Stop() bool {
	if !t.Timer.Stop() {
		return false
	}
	t.c.mu.Lock()
	t.stopped = true
	t.c.mu.Unlock()
	return true
}

// Advance moves time forward by d. Each timer falling due fires at its own
// deadline and its callback finishes before the next one is considered,
// including timers scheduled by those callbacks.
func (c *Clock) Advance(d time.Duration) {
	end := c.Now().Add(d)
	for {
		t := c.next(end)
		if t == nil {
			break
		}
		if wait := t.at.Sub(c.Now()); wait > 0 {
			c.FakeClock.Advance(wait)
		}
		<-t.done
	}
	if rest := end.Sub(c.Now()); rest > 0 {
		c.FakeClock.Advance(rest)
	}
}

// next removes and returns the earliest live timer due by end
func (c *Clock) next(end time.Time) *timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	best := -1
	for i, t := range c.timers {
		if t.stopped || t.at.After(end) {
			continue
		}
		if best < 0 || t.at.Before(c.timers[best].at) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	t := c.timers[best]
	c.timers = append(c.timers[:best], c.timers[best+1:]...)
	return t
}

// Pending returns the number of timers that have neither fired nor been
// stopped
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
