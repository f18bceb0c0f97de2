package strip

import (
	"fmt"
	"image/color"
	"strings"
)

// Layout is the arrangement of photos on the strip
type Layout string

const (
	Vertical   Layout = "vertical"
	Horizontal Layout = "horizontal"
)

// ParseLayout parses a layout name
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case Vertical, "v", "":
		return Vertical, nil
	case Horizontal, "h":
		return Horizontal, nil
	}
	return "", fmt.Errorf("invalid layout %q (valid: vertical, horizontal)", s)
}

// Valid reports whether l is a known layout
func (l Layout) Valid() bool {
	return l == Vertical || l == Horizontal
}

// FrameColor is the strip background
type FrameColor string

const (
	White     FrameColor = "white"
	Cream     FrameColor = "cream"
	Black     FrameColor = "black"
	DustyPink FrameColor = "dustypink"
)

var frameColors = map[FrameColor]color.RGBA{
	White:     {0xff, 0xff, 0xff, 0xff},
	Cream:     {0xf5, 0xec, 0xd8, 0xff},
	Black:     {0x2a, 0x2a, 0x2a, 0xff},
	DustyPink: {0xe6, 0xb3, 0xc7, 0xff},
}

var (
	lightText = color.RGBA{0xff, 0xff, 0xff, 0xff}
	darkText  = color.RGBA{0x2a, 0x2a, 0x2a, 0xff}
)

// FrameColors lists the frame colors in display order
func FrameColors() []FrameColor {
	return []FrameColor{White, Cream, Black, DustyPink}
}

// ParseFrameColor parses a frame color name
func ParseFrameColor(s string) (FrameColor, error) {
	name := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	if name == "" {
		return White, nil
	}
	c := FrameColor(name)
	if !c.Valid() {
		return "", fmt.Errorf("invalid frame color %q (valid: white, cream, black, dustypink)", s)
	}
	return c, nil
}

// Valid reports whether c is a known frame color
func (c FrameColor) Valid() bool {
	_, ok := frameColors[c]
	return ok
}

// RGBA returns the fill color. Unknown values fall back to white.
func (c FrameColor) RGBA() color.RGBA {
	if rgba, ok := frameColors[c]; ok {
		return rgba
	}
	return frameColors[White]
}

// TextColor is white on the black frame and dark on every other frame
func (c FrameColor) TextColor() color.RGBA {
	if c == Black {
		return lightText
	}
	return darkText
}

// Options controls strip composition
type Options struct {
	Layout      Layout
	FrameColor  FrameColor
	Caption     string
	IncludeDate bool
}

// HasText reports whether the caption band carries a caption or a date
func (o Options) HasText() bool {
	return o.Caption != "" || o.IncludeDate
}
