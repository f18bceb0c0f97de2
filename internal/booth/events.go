package booth

import (
	"sync"
	"time"
)

// EventType classifies sequencer events
type EventType string

const (
	EventState          EventType = "state"
	EventCapture        EventType = "capture"
	EventCaptureSkipped EventType = "capture_skipped"
	EventComposed       EventType = "composed"
	EventError          EventType = "error"
	EventReset          EventType = "reset"
)

// Event reports something the sequencer did. Shot is 1-based.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	State     State     `json:"state"`
	Shot      int       `json:"shot,omitempty"`
	Photos    int       `json:"photos"`
	Err       error     `json:"-"`
	Error     string    `json:"error,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}

const subscriberBuffer = 64

// broadcaster fans events out to subscribers. Slow subscribers miss
// events rather than stalling the sequencer.
type broadcaster struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{clients: make(map[chan Event]struct{})}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

func (b *broadcaster) publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- e:
		default:
			// subscriber full, drop
		}
	}
}
