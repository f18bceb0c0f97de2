package booth

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

// Session setting limits
const (
	MinShots         = 1
	MaxShots         = 4
	MaxCaptionLength = 30
)

// Settings are the user's choices for the next run. A run reads a
// snapshot taken when it starts.
type Settings struct {
	ShotCount   int              `json:"shot_count" yaml:"shot_count" mapstructure:"shot_count"`
	Layout      strip.Layout     `json:"layout" yaml:"layout" mapstructure:"layout"`
	Filter      filter.Kind      `json:"filter" yaml:"filter" mapstructure:"filter"`
	FrameColor  strip.FrameColor `json:"frame_color" yaml:"frame_color" mapstructure:"frame_color"`
	Caption     string           `json:"caption" yaml:"caption" mapstructure:"caption"`
	IncludeDate bool             `json:"include_date" yaml:"include_date" mapstructure:"include_date"`
}

// DefaultSettings returns three vertical shots, unfiltered, on white,
// dated
func DefaultSettings() Settings {
	return Settings{
		ShotCount:   3,
		Layout:      strip.Vertical,
		Filter:      filter.None,
		FrameColor:  strip.White,
		IncludeDate: true,
	}
}

// Normalize fills empty fields with defaults, trims the caption and
// truncates it to MaxCaptionLength runes
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if s.ShotCount == 0 {
		s.ShotCount = d.ShotCount
	}
	if s.Layout == "" {
		s.Layout = d.Layout
	}
	if s.Filter == "" {
		s.Filter = d.Filter
	}
	if s.FrameColor == "" {
		s.FrameColor = d.FrameColor
	}
	s.Caption = strings.TrimSpace(s.Caption)
	if r := []rune(s.Caption); len(r) > MaxCaptionLength {
		s.Caption = string(r[:MaxCaptionLength])
	}
	return s
}

// Validate checks every field against its allowed values
func (s Settings) Validate() error {
	if s.ShotCount < MinShots || s.ShotCount > MaxShots {
		return fmt.Errorf("shot count %d out of range [%d, %d]", s.ShotCount, MinShots, MaxShots)
	}
	if !s.Layout.Valid() {
		return fmt.Errorf("invalid layout %q", s.Layout)
	}
	if !s.Filter.Valid() {
		return fmt.Errorf("invalid filter %q", s.Filter)
	}
	if !s.FrameColor.Valid() {
		return fmt.Errorf("invalid frame color %q", s.FrameColor)
	}
	if n := len([]rune(s.Caption)); n > MaxCaptionLength {
		return fmt.Errorf("caption is %d characters, max %d", n, MaxCaptionLength)
	}
	return nil
}

// StripOptions converts settings into composer options
func (s Settings) StripOptions() strip.Options {
	return strip.Options{
		Layout:      s.Layout,
		FrameColor:  s.FrameColor,
		Caption:     s.Caption,
		IncludeDate: s.IncludeDate,
	}
}

// CapturedPhoto is one processed frame and when it was taken
type CapturedPhoto struct {
	Image   *image.RGBA
	TakenAt time.Time
}

// Session is the photos captured so far and the settings they were
// captured with. Only the Sequencer mutates it.
type Session struct {
	Photos   []CapturedPhoto
	Settings Settings
}

func (s *Session) images() []image.Image {
	out := make([]image.Image, len(s.Photos))
	for i, p := range s.Photos {
		out[i] = p.Image
	}
	return out
}
