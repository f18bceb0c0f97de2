package booth

import "fmt"

// Phase names a sequencer state
type Phase string

const (
	Idle         Phase = "idle"
	CountingDown Phase = "counting_down"
	Flashing     Phase = "flashing"
	Capturing    Phase = "capturing"
	Pausing      Phase = "pausing"
	Done         Phase = "done"
)

// State is the sequencer's tagged state. ShotsTaken counts resolved
// capture attempts in the current run, successful or skipped. Remaining
// is the countdown value and is only meaningful in CountingDown.
type State struct {
	Phase      Phase `json:"phase"`
	ShotsTaken int   `json:"shots_taken"`
	Remaining  int   `json:"remaining,omitempty"`
}

func (s State) String() string {
	switch s.Phase {
	case CountingDown:
		return fmt.Sprintf("%s(%d, %d)", s.Phase, s.ShotsTaken, s.Remaining)
	case Flashing, Capturing, Pausing:
		return fmt.Sprintf("%s(%d)", s.Phase, s.ShotsTaken)
	}
	return string(s.Phase)
}

// Active reports whether a run is in progress
func (s State) Active() bool {
	return s.Phase != Idle
}

// Mode selects a single snapshot or a multi-shot strip run
type Mode int

const (
	Single Mode = iota
	Multi
)

func (m Mode) String() string {
	if m == Single {
		return "single"
	}
	return "multi"
}

// input drives the state machine
type input int

const (
	inStart input = iota
	inTick
	inFlashed
	inCaptured
	inPaused
	inComposed
	inRetake
)

func (in input) String() string {
	return [...]string{"start", "tick", "flashed", "captured", "paused", "composed", "retake"}[in]
}

// plan is the fixed shape of the run the machine is executing
type plan struct {
	mode      Mode
	shots     int
	countdown int
}

// transition is the only place sequencer states change. Inputs that do
// not apply to the current state leave it unchanged; callers compare the
// result with the input state to detect ignored inputs.
func transition(s State, in input, p plan) State {
	if in == inRetake {
		return State{Phase: Idle}
	}

	switch s.Phase {
	case Idle:
		if in != inStart {
			return s
		}
		if p.mode == Single {
			return State{Phase: Capturing}
		}
		return State{Phase: CountingDown, Remaining: p.countdown}

	case CountingDown:
		if in != inTick {
			return s
		}
		if s.Remaining > 1 {
			return State{Phase: CountingDown, ShotsTaken: s.ShotsTaken, Remaining: s.Remaining - 1}
		}
		return State{Phase: Flashing, ShotsTaken: s.ShotsTaken}

	case Flashing:
		if in != inFlashed {
			return s
		}
		return State{Phase: Capturing, ShotsTaken: s.ShotsTaken}

	case Capturing:
		if in != inCaptured {
			return s
		}
		if p.mode == Single {
			return State{Phase: Idle}
		}
		taken := s.ShotsTaken + 1
		if taken >= p.shots {
			return State{Phase: Done, ShotsTaken: taken}
		}
		return State{Phase: Pausing, ShotsTaken: taken}

	case Pausing:
		if in != inPaused {
			return s
		}
		return State{Phase: CountingDown, ShotsTaken: s.ShotsTaken, Remaining: p.countdown}

	case Done:
		if in != inComposed {
			return s
		}
		return State{Phase: Idle}
	}
	return s
}
