package overlay

import (
	"image"
	"image/color"
)

// Status is what the preview overlay reflects about the booth
type Status struct {
	// Phase is the sequencer phase name, e.g. "counting_down"
	Phase     string
	Countdown int
	Shot      int
	Shots     int
	Filter    string
	Message   string
}

// Phase names the overlay reacts to
const (
	PhaseCountingDown = "counting_down"
	PhaseFlashing     = "flashing"
	PhaseCapturing    = "capturing"
)

// Widget represents a renderable overlay widget
type Widget interface {
	// ID returns the unique identifier for this widget instance
	ID() string

	// Type returns the widget type name
	Type() string

	// Render draws the widget for the given status
	Render(img *image.RGBA, st Status) error

	// IsEnabled returns whether the widget should be rendered
	IsEnabled() bool

	// SetEnabled sets whether the widget should be rendered
	SetEnabled(enabled bool)
}

// BaseWidget provides common functionality for all widgets
type BaseWidget struct {
	id      string
	enabled bool
	opacity float64 // 0.0 to 1.0
}

// NewBaseWidget creates a new base widget
func NewBaseWidget(id string, opacity float64) *BaseWidget {
	w := &BaseWidget{id: id, enabled: true}
	w.SetOpacity(opacity)
	return w
}

// ID returns the widget's unique identifier
func (w *BaseWidget) ID() string {
	return w.id
}

// IsEnabled returns whether the widget should be rendered
func (w *BaseWidget) IsEnabled() bool {
	return w.enabled
}

// SetEnabled sets whether the widget should be rendered
func (w *BaseWidget) SetEnabled(enabled bool) {
	w.enabled = enabled
}

// Opacity returns the widget's opacity
func (w *BaseWidget) Opacity() float64 {
	return w.opacity
}

// SetOpacity sets the widget's opacity (0.0 to 1.0)
func (w *BaseWidget) SetOpacity(opacity float64) {
	w.opacity = min(max(opacity, 0), 1)
}

// BlendImage blends src onto dst at (x, y), scaling src alpha by opacity.
// The destination is treated as opaque.
func BlendImage(dst *image.RGBA, src *image.RGBA, x, y int, opacity float64) {
	sb := src.Bounds()
	r := sb.Sub(sb.Min).Add(image.Pt(x, y)).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	for dy := r.Min.Y; dy < r.Max.Y; dy++ {
		sy := sb.Min.Y + dy - y
		for dx := r.Min.X; dx < r.Max.X; dx++ {
			sx := sb.Min.X + dx - x
			si := src.PixOffset(sx, sy)
			a := float64(src.Pix[si+3]) / 255 * opacity
			if a <= 0 {
				continue
			}
			di := dst.PixOffset(dx, dy)
			for c := 0; c < 3; c++ {
				dst.Pix[di+c] = uint8(float64(src.Pix[si+c])*a + float64(dst.Pix[di+c])*(1-a) + 0.5)
			}
			dst.Pix[di+3] = 255
		}
	}
}

// FillRect blends a solid rectangle onto dst
func FillRect(dst *image.RGBA, rect image.Rectangle, c color.RGBA, opacity float64) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	a := float64(c.A) / 255 * opacity
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := dst.PixOffset(x, y)
			dst.Pix[i] = uint8(float64(c.R)*a + float64(dst.Pix[i])*(1-a) + 0.5)
			dst.Pix[i+1] = uint8(float64(c.G)*a + float64(dst.Pix[i+1])*(1-a) + 0.5)
			dst.Pix[i+2] = uint8(float64(c.B)*a + float64(dst.Pix[i+2])*(1-a) + 0.5)
			dst.Pix[i+3] = 255
		}
	}
}
