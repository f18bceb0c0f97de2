package overlay

import (
	"image"
	"image/color"
)

// FlashWidget whites out the preview while the booth is flashing
type FlashWidget struct {
	*BaseWidget
}

// NewFlashWidget creates a flash widget
func NewFlashWidget(id string) *FlashWidget {
	return &FlashWidget{BaseWidget: NewBaseWidget(id, 0.85)}
}

// Type returns the widget type
func (w *FlashWidget) Type() string {
	return "flash"
}

// Render fills the frame with white during the flash phase
func (w *FlashWidget) Render(img *image.RGBA, st Status) error {
	if st.Phase != PhaseFlashing {
		return nil
	}
	FillRect(img, img.Bounds(), color.RGBA{255, 255, 255, 255}, w.opacity)
	return nil
}
