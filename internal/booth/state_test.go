package booth

import "testing"

func TestTransition(t *testing.T) {
	multi := plan{mode: Multi, shots: 2, countdown: 3}
	single := plan{mode: Single, shots: 3, countdown: 3}

	tests := []struct {
		name string
		from State
		in   input
		p    plan
		want State
	}{
		{"start multi", State{Phase: Idle}, inStart, multi, State{Phase: CountingDown, Remaining: 3}},
		{"start single", State{Phase: Idle}, inStart, single, State{Phase: Capturing}},
		{"tick", State{Phase: CountingDown, ShotsTaken: 1, Remaining: 3}, inTick, multi, State{Phase: CountingDown, ShotsTaken: 1, Remaining: 2}},
		{"last tick flashes", State{Phase: CountingDown, ShotsTaken: 1, Remaining: 1}, inTick, multi, State{Phase: Flashing, ShotsTaken: 1}},
		{"flash ends", State{Phase: Flashing, ShotsTaken: 1}, inFlashed, multi, State{Phase: Capturing, ShotsTaken: 1}},
		{"captured pauses", State{Phase: Capturing}, inCaptured, multi, State{Phase: Pausing, ShotsTaken: 1}},
		{"last capture done", State{Phase: Capturing, ShotsTaken: 1}, inCaptured, multi, State{Phase: Done, ShotsTaken: 2}},
		{"single returns idle", State{Phase: Capturing}, inCaptured, single, State{Phase: Idle}},
		{"pause ends", State{Phase: Pausing, ShotsTaken: 1}, inPaused, multi, State{Phase: CountingDown, ShotsTaken: 1, Remaining: 3}},
		{"composed", State{Phase: Done, ShotsTaken: 2}, inComposed, multi, State{Phase: Idle}},
		{"retake from countdown", State{Phase: CountingDown, Remaining: 2}, inRetake, multi, State{Phase: Idle}},
		{"retake from done", State{Phase: Done, ShotsTaken: 2}, inRetake, multi, State{Phase: Idle}},
		{"start ignored while active", State{Phase: Pausing, ShotsTaken: 1}, inStart, multi, State{Phase: Pausing, ShotsTaken: 1}},
		{"stray tick ignored", State{Phase: Idle}, inTick, multi, State{Phase: Idle}},
		{"stray capture ignored", State{Phase: Flashing}, inCaptured, multi, State{Phase: Flashing}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transition(tt.from, tt.in, tt.p); got != tt.want {
				t.Errorf("transition(%s, %s) = %s, want %s", tt.from, tt.in, got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		{Phase: Idle}: "idle",
		{Phase: CountingDown, ShotsTaken: 1, Remaining: 2}: "counting_down(1, 2)",
		{Phase: Pausing, ShotsTaken: 2}:                    "pausing(2)",
		{Phase: Done, ShotsTaken: 3}:                       "done",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := DefaultSettings()
	if err := valid.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero shots", func(s *Settings) { s.ShotCount = 0 }},
		{"five shots", func(s *Settings) { s.ShotCount = 5 }},
		{"layout", func(s *Settings) { s.Layout = "grid" }},
		{"filter", func(s *Settings) { s.Filter = "neon" }},
		{"frame", func(s *Settings) { s.FrameColor = "teal" }},
		{"caption", func(s *Settings) { s.Caption = "0123456789012345678901234567890" }},
	}
	for _, tt := range tests {
		s := DefaultSettings()
		tt.mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestSettingsNormalizeCountsRunes(t *testing.T) {
	s := Settings{Caption: "ééééééééééééééééééééééééééééééééé"}.Normalize()
	if n := len([]rune(s.Caption)); n != MaxCaptionLength {
		t.Errorf("caption runes = %d", n)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("normalized settings invalid: %v", err)
	}
}
