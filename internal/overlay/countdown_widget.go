package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	boldOnce sync.Once
	boldFont *opentype.Font
	boldErr  error
)

func loadBold() (*opentype.Font, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = opentype.Parse(gobold.TTF)
	})
	return boldFont, boldErr
}

// CountdownWidget draws the countdown digit centered on the preview
type CountdownWidget struct {
	*BaseWidget
	textColor color.RGBA

	// faces are cached per frame height
	mu    sync.Mutex
	faces map[int]font.Face
}

// NewCountdownWidget creates a countdown widget
func NewCountdownWidget(id string) *CountdownWidget {
	return &CountdownWidget{
		BaseWidget: NewBaseWidget(id, 0.9),
		textColor:  color.RGBA{255, 255, 255, 255},
		faces:      make(map[int]font.Face),
	}
}

// Type returns the widget type
func (w *CountdownWidget) Type() string {
	return "countdown"
}

// Render draws the remaining seconds while counting down
func (w *CountdownWidget) Render(img *image.RGBA, st Status) error {
	if st.Phase != PhaseCountingDown || st.Countdown <= 0 {
		return nil
	}

	b := img.Bounds()
	size := b.Dy() / 3
	if size < 8 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	face, err := w.face(size)
	if err != nil {
		return fmt.Errorf("countdown font: %w", err)
	}

	text := strconv.Itoa(st.Countdown)
	d := &font.Drawer{Face: face}
	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	glyphs := image.NewRGBA(image.Rect(0, 0, width, height))
	d.Dst = glyphs
	d.Src = image.NewUniform(w.textColor)
	d.Dot = fixed.Point26_6{X: 0, Y: metrics.Ascent}
	d.DrawString(text)

	x := b.Min.X + (b.Dx()-width)/2
	y := b.Min.Y + (b.Dy()-height)/2
	BlendImage(img, glyphs, x, y, w.opacity)
	return nil
}

func (w *CountdownWidget) face(size int) (font.Face, error) {
	if f, ok := w.faces[size]; ok {
		return f, nil
	}
	bold, err := loadBold()
	if err != nil {
		return nil, err
	}
	f, err := opentype.NewFace(bold, &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	w.faces[size] = f
	return f, nil
}
