package overlay

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextWidget displays a status line on the preview. With no fixed text
// it shows the booth status: the message if there is one, else the shot
// counter during a run, else the active filter.
type TextWidget struct {
	*BaseWidget
	x, y      int
	text      string
	fontSize  int
	textColor color.RGBA
	bgColor   *color.RGBA // Optional background color
	padding   int
}

// NewTextWidget creates a new text widget
func NewTextWidget(id string, config map[string]interface{}) (*TextWidget, error) {
	w := &TextWidget{
		BaseWidget: NewBaseWidget(id, 1.0),
		x:          10,
		y:          10,
		fontSize:   13, // basicfont size
		textColor:  color.RGBA{255, 255, 255, 255},
		bgColor:    &color.RGBA{0, 0, 0, 160},
		padding:    5,
	}

	if err := w.UpdateConfig(config); err != nil {
		return nil, err
	}

	return w, nil
}

// Type returns the widget type
func (w *TextWidget) Type() string {
	return "text"
}

// Line returns the text rendered for st
func (w *TextWidget) Line(st Status) string {
	if w.text != "" {
		return w.text
	}
	switch {
	case st.Message != "":
		return st.Message
	case st.Shots > 0 && (st.Phase == PhaseCountingDown || st.Phase == PhaseFlashing || st.Phase == PhaseCapturing):
		return fmt.Sprintf("Shot %d of %d", st.Shot+1, st.Shots)
	case st.Filter != "":
		return "Filter: " + st.Filter
	}
	return ""
}

// Render draws the text widget
func (w *TextWidget) Render(img *image.RGBA, st Status) error {
	text := w.Line(st)
	if text == "" {
		return nil
	}

	face := basicfont.Face7x13

	d := &font.Drawer{Face: face}
	textWidthPx := d.MeasureString(text).Ceil()

	widgetWidth := textWidthPx + w.padding*2
	widgetHeight := w.fontSize + w.padding*2

	if w.bgColor != nil {
		FillRect(img, image.Rect(w.x, w.y, w.x+widgetWidth, w.y+widgetHeight), *w.bgColor, w.opacity)
	}

	textImg := image.NewRGBA(image.Rect(0, 0, textWidthPx, w.fontSize+3))
	textDrawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.NewUniform(w.textColor),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: fixed.I(face.Ascent)},
	}
	textDrawer.DrawString(text)

	BlendImage(img, textImg, w.x+w.padding, w.y+w.padding, w.opacity)
	return nil
}

// GetConfig returns the widget configuration
func (w *TextWidget) GetConfig() map[string]interface{} {
	config := map[string]interface{}{
		"id":      w.id,
		"type":    w.Type(),
		"enabled": w.enabled,
		"x":       w.x,
		"y":       w.y,
		"opacity": w.opacity,
		"text":    w.text,
		"padding": w.padding,
		"color": map[string]interface{}{
			"r": w.textColor.R,
			"g": w.textColor.G,
			"b": w.textColor.B,
			"a": w.textColor.A,
		},
	}

	if w.bgColor != nil {
		config["background"] = map[string]interface{}{
			"r": w.bgColor.R,
			"g": w.bgColor.G,
			"b": w.bgColor.B,
			"a": w.bgColor.A,
		}
	}

	return config
}

// UpdateConfig updates the widget configuration
func (w *TextWidget) UpdateConfig(config map[string]interface{}) error {
	if text, ok := config["text"].(string); ok {
		w.text = text
	}
	if v, ok := config["x"]; ok {
		w.x = getInt(v)
	}
	if v, ok := config["y"]; ok {
		w.y = getInt(v)
	}
	if opacity, ok := config["opacity"].(float64); ok {
		w.SetOpacity(opacity)
	}
	if enabled, ok := config["enabled"].(bool); ok {
		w.SetEnabled(enabled)
	}
	if v, ok := config["padding"]; ok {
		w.padding = getInt(v)
	}

	if colorMap, ok := config["color"].(map[string]interface{}); ok {
		c := parseColor(colorMap)
		w.textColor = c
	}
	if bg, ok := config["background"]; ok {
		if bgMap, ok := bg.(map[string]interface{}); ok {
			c := parseColor(bgMap)
			w.bgColor = &c
		} else if bg == nil {
			w.bgColor = nil
		}
	}

	if w.padding < 0 {
		return fmt.Errorf("padding must not be negative")
	}
	return nil
}

func parseColor(m map[string]interface{}) color.RGBA {
	a := 255
	if v, ok := m["a"]; ok {
		a = getInt(v)
	}
	return color.RGBA{
		R: uint8(getInt(m["r"])),
		G: uint8(getInt(m["g"])),
		B: uint8(getInt(m["b"])),
		A: uint8(a),
	}
}

// getInt extracts an integer value from an interface{} that might be int or float64
func getInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	case int64:
		return int(val)
	default:
		return 0
	}
}

// SetText fixes the displayed text. An empty string restores the status line.
func (w *TextWidget) SetText(text string) {
	w.text = text
}
