package booth

import (
	"fmt"
	"strings"

	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

// Key is a normalized keyboard key
type Key string

const (
	KeySpace  Key = "space"
	KeyEnter  Key = "enter"
	KeyEscape Key = "escape"
)

// digit keys select filters directly
var filterKeys = map[Key]filter.Kind{
	"1": filter.None,
	"2": filter.Sepia,
	"3": filter.Grayscale,
	"4": filter.Vintage,
	"5": filter.Copper,
}

// FilterKey returns the digit key bound to k, or "" if none is
func FilterKey(k filter.Kind) Key {
	for key, kind := range filterKeys {
		if kind == k {
			return key
		}
	}
	return ""
}

// ParseKey accepts key names as browsers report them (Space, Enter,
// Escape, Digit1) as well as short forms (esc, return, 1)
func ParseKey(s string) (Key, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.TrimPrefix(k, "digit")
	switch k {
	case "space", " ", "spacebar":
		return KeySpace, nil
	case "enter", "return":
		return KeyEnter, nil
	case "escape", "esc":
		return KeyEscape, nil
	}
	if _, ok := filterKeys[Key(k)]; ok {
		return Key(k), nil
	}
	return "", fmt.Errorf("unbound key %q", s)
}

// Action is what a key press did
type Action string

const (
	ActionNone     Action = "none"
	ActionStart    Action = "start"
	ActionDownload Action = "download"
	ActionRetake   Action = "retake"
	ActionFilter   Action = "filter"
)

// KeyResult describes the outcome of a key press. Strip is set for
// ActionDownload and Filter for ActionFilter.
type KeyResult struct {
	Key    Key          `json:"key"`
	Action Action       `json:"action"`
	Filter filter.Kind  `json:"filter,omitempty"`
	Strip  *strip.Strip `json:"-"`
}

// Controller is the part of the Sequencer key presses drive
type Controller interface {
	State() State
	Photos() []CapturedPhoto
	Strip() *strip.Strip
	Start(Mode) error
	Retake()
	SetFilter(filter.Kind) error
}

// Dispatch maps a key press onto a Controller call. Keys that do not
// apply in the current state report ActionNone.
func Dispatch(c Controller, key Key) (KeyResult, error) {
	res := KeyResult{Key: key, Action: ActionNone}

	switch key {
	case KeySpace:
		if c.State().Active() || len(c.Photos()) > 0 {
			return res, nil
		}
		if err := c.Start(Multi); err != nil {
			return res, err
		}
		res.Action = ActionStart

	case KeyEnter:
		if st := c.Strip(); st != nil {
			res.Action = ActionDownload
			res.Strip = st
		}

	case KeyEscape:
		if len(c.Photos()) > 0 || c.Strip() != nil {
			c.Retake()
			res.Action = ActionRetake
		}

	default:
		kind, ok := filterKeys[key]
		if !ok {
			return res, fmt.Errorf("unbound key %q", key)
		}
		if err := c.SetFilter(kind); err != nil {
			return res, err
		}
		res.Action = ActionFilter
		res.Filter = kind
	}
	return res, nil
}
