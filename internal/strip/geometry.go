package strip

import "image"

// Strip geometry in pixels
const (
	PhotoWidth    = 300
	PhotoHeight   = 400
	Padding       = 20
	Border        = 10
	CaptionBand   = 80
	EmptyBand     = 20
	CornerRadius  = 8
	captionOffset = 60
	dateSpacing   = 30
)

// Size returns the canvas dimensions for n photos
func Size(opts Options, n int) (width, height int) {
	band := EmptyBand
	if opts.HasText() {
		band = CaptionBand
	}

	if opts.Layout == Horizontal {
		width = PhotoWidth*n + Padding*(n+1) + Border*2
		height = PhotoHeight + Padding*2 + Border*2 + band
		return width, height
	}
	width = PhotoWidth + Padding*2 + Border*2
	height = PhotoHeight*n + Padding*(n+1) + Border*2 + band
	return width, height
}

// Cell returns the rectangle photo i occupies. Photos run top to bottom
// on a vertical strip and left to right on a horizontal one.
func Cell(layout Layout, i int) image.Rectangle {
	x, y := Border+Padding, Border+Padding
	if layout == Horizontal {
		x += i * (PhotoWidth + Padding)
	} else {
		y += i * (PhotoHeight + Padding)
	}
	return image.Rect(x, y, x+PhotoWidth, y+PhotoHeight)
}
