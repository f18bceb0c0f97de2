package booth

import (
	"testing"
	"time"

	"github.com/bryanchriswhite/photobooth/internal/filter"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{"Space", KeySpace, false},
		{" ", KeySpace, false},
		{"Enter", KeyEnter, false},
		{"return", KeyEnter, false},
		{"Escape", KeyEscape, false},
		{"esc", KeyEscape, false},
		{"Digit3", "3", false},
		{"5", "5", false},
		{"6", "", true},
		{"q", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKey(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFilterKey(t *testing.T) {
	want := map[filter.Kind]Key{
		filter.None:       "1",
		filter.Sepia:      "2",
		filter.Grayscale:  "3",
		filter.Vintage:    "4",
		filter.Copper:     "5",
		filter.WashedBlue: "",
	}
	for k, key := range want {
		if got := FilterKey(k); got != key {
			t.Errorf("FilterKey(%s) = %q, want %q", k, got, key)
		}
	}
}

func TestDispatch(t *testing.T) {
	g := newFakeGrabber()
	seq, clk := newTestSequencer(t, g, friendsSettings())

	res, err := Dispatch(seq, "4")
	if err != nil || res.Action != ActionFilter || res.Filter != filter.Vintage {
		t.Fatalf("digit 4 = %+v, %v", res, err)
	}
	if seq.Settings().Filter != filter.Vintage {
		t.Errorf("filter = %s", seq.Settings().Filter)
	}

	if res, _ := Dispatch(seq, KeyEnter); res.Action != ActionNone {
		t.Errorf("enter without strip = %s", res.Action)
	}
	if res, _ := Dispatch(seq, KeyEscape); res.Action != ActionNone {
		t.Errorf("escape with nothing to clear = %s", res.Action)
	}

	res, err = Dispatch(seq, KeySpace)
	if err != nil || res.Action != ActionStart {
		t.Fatalf("space = %+v, %v", res, err)
	}
	if res, _ := Dispatch(seq, KeySpace); res.Action != ActionNone {
		t.Errorf("space during run = %s", res.Action)
	}

	clk.Advance(time.Minute)

	// photos present: space no longer starts a run
	if res, _ := Dispatch(seq, KeySpace); res.Action != ActionNone {
		t.Errorf("space with photos = %s", res.Action)
	}

	res, _ = Dispatch(seq, KeyEnter)
	if res.Action != ActionDownload || res.Strip == nil {
		t.Fatalf("enter with strip = %+v", res)
	}

	res, _ = Dispatch(seq, KeyEscape)
	if res.Action != ActionRetake {
		t.Fatalf("escape = %s", res.Action)
	}
	if len(seq.Photos()) != 0 || seq.Strip() != nil {
		t.Error("escape should clear the session")
	}

	if _, err := Dispatch(seq, "9"); err == nil {
		t.Error("unbound key should error")
	}
}
