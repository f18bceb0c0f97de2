package strip

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

var (
	// ErrCompositionFailed means no strip could be drawn, for example from
	// an empty photo set
	ErrCompositionFailed = errors.New("composition failed")

	// ErrEncodingFailed means the composed strip could not be serialized
	ErrEncodingFailed = errors.New("encoding failed")
)

const (
	captionSize = 24
	dateSize    = 16
	// DateLayout renders the long month-name date under the caption
	DateLayout = "January 2, 2006"
)

var strokeColor = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}

// Strip is a composed photo strip. The image is never modified after
// Compose; PNG holds the encoded file once EncodeWith has run.
type Strip struct {
	Image   *image.RGBA
	Options Options
	Photos  int
	Date    time.Time
	PNG     []byte
}

// Compose draws photos onto a framed strip. The date is rendered only
// when opts.IncludeDate is set. Identical inputs produce identical pixels.
func Compose(photos []image.Image, opts Options, date time.Time) (*Strip, error) {
	log := logger.WithComponent("strip")

	if len(photos) == 0 {
		return nil, fmt.Errorf("%w: no photos", ErrCompositionFailed)
	}
	if opts.Layout == "" {
		opts.Layout = Vertical
	}
	if !opts.Layout.Valid() {
		return nil, fmt.Errorf("%w: invalid layout %q", ErrCompositionFailed, opts.Layout)
	}
	if opts.FrameColor == "" {
		opts.FrameColor = White
	}

	width, height := Size(opts, len(photos))
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.FrameColor.RGBA()), image.Point{}, draw.Src)

	fill, ring := cellMasks()
	stroke := image.NewUniform(strokeColor)

	for i, photo := range photos {
		if photo == nil || photo.Bounds().Empty() {
			return nil, fmt.Errorf("%w: photo %d is empty", ErrCompositionFailed, i)
		}
		cell := Cell(opts.Layout, i)
		scaled := transform.Resize(photo, PhotoWidth, PhotoHeight, transform.Linear)

		// masks carry a 1px margin so the stroke can straddle the cell edge
		draw.DrawMask(canvas, cell, scaled, image.Point{}, fill, image.Pt(1, 1), draw.Over)
		draw.DrawMask(canvas, cell.Inset(-1), stroke, image.Point{}, ring, image.Point{}, draw.Over)
	}

	if opts.HasText() {
		if err := drawText(canvas, opts, date); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCompositionFailed, err)
		}
	}

	log.Debug().
		Int("photos", len(photos)).
		Str("layout", string(opts.Layout)).
		Str("frame", string(opts.FrameColor)).
		Int("width", width).
		Int("height", height).
		Msg("Composed strip")

	return &Strip{
		Image:   canvas,
		Options: opts,
		Photos:  len(photos),
		Date:    date,
	}, nil
}

// Bounds returns the canvas size
func (s *Strip) Bounds() image.Rectangle {
	return s.Image.Bounds()
}

// EncodeWith serializes the strip once with enc and keeps the result in PNG
func (s *Strip) EncodeWith(enc imgio.Encoder) error {
	if s == nil || s.Image == nil {
		return fmt.Errorf("%w: no strip", ErrEncodingFailed)
	}
	var buf bytes.Buffer
	if err := enc(&buf, s.Image); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	if buf.Len() == 0 {
		return fmt.Errorf("%w: empty output", ErrEncodingFailed)
	}
	s.PNG = buf.Bytes()
	return nil
}

// Encode returns the encoded strip, encoding it as PNG if that has not
// happened yet
func (s *Strip) Encode() ([]byte, error) {
	if s != nil && len(s.PNG) > 0 {
		return s.PNG, nil
	}
	if err := s.EncodeWith(imgio.PNGEncoder()); err != nil {
		return nil, err
	}
	return s.PNG, nil
}

// Filename is the download name for a strip created at t
func Filename(t time.Time) string {
	return fmt.Sprintf("photo-strip-%d.png", t.UnixMilli())
}

// DateText formats the date line
func DateText(t time.Time) string {
	return t.Format(DateLayout)
}

func drawText(canvas *image.RGBA, opts Options, date time.Time) error {
	bold, regular, err := fonts()
	if err != nil {
		return err
	}

	b := canvas.Bounds()
	cx := b.Dx() / 2
	y := b.Dy() - captionOffset
	src := image.NewUniform(opts.FrameColor.TextColor())

	if opts.Caption != "" {
		face, err := opentype.NewFace(bold, &opentype.FaceOptions{Size: captionSize, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return err
		}
		drawCentered(canvas, face, src, opts.Caption, cx, y)
		face.Close()
	}

	if opts.IncludeDate {
		face, err := opentype.NewFace(regular, &opentype.FaceOptions{Size: dateSize, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return err
		}
		dy := y
		if opts.Caption != "" {
			dy += dateSpacing
		}
		drawCentered(canvas, face, src, DateText(date), cx, dy)
		face.Close()
	}
	return nil
}

func drawCentered(dst draw.Image, face font.Face, src image.Image, text string, cx, baseline int) {
	d := &font.Drawer{Dst: dst, Src: src, Face: face}
	w := d.MeasureString(text)
	d.Dot = fixed.Point26_6{X: fixed.I(cx) - w/2, Y: fixed.I(baseline)}
	d.DrawString(text)
}

var (
	fontOnce     sync.Once
	boldFont     *opentype.Font
	regularFont  *opentype.Font
	fontParseErr error
)

func fonts() (*opentype.Font, *opentype.Font, error) {
	fontOnce.Do(func() {
		boldFont, fontParseErr = opentype.Parse(gobold.TTF)
		if fontParseErr != nil {
			return
		}
		regularFont, fontParseErr = opentype.Parse(goregular.TTF)
	})
	return boldFont, regularFont, fontParseErr
}

var (
	maskOnce sync.Once
	fillMask *image.Alpha
	ringMask *image.Alpha
)

// cellMasks returns the rounded clip for a photo and the 1px stroke ring
// around it, both sized to a cell plus a 1px margin on every side
func cellMasks() (fill, ring *image.Alpha) {
	maskOnce.Do(func() {
		w, h := PhotoWidth+2, PhotoHeight+2
		fillMask = roundedRect(w, h, 1, 1, 1+PhotoWidth, 1+PhotoHeight, CornerRadius)

		outer := roundedRect(w, h, 0.5, 0.5, 1.5+PhotoWidth, 1.5+PhotoHeight, CornerRadius+0.5)
		inner := roundedRect(w, h, 1.5, 1.5, 0.5+PhotoWidth, 0.5+PhotoHeight, CornerRadius-0.5)
		ringMask = image.NewAlpha(outer.Bounds())
		for i := range ringMask.Pix {
			if outer.Pix[i] > inner.Pix[i] {
				ringMask.Pix[i] = outer.Pix[i] - inner.Pix[i]
			}
		}
	})
	return fillMask, ringMask
}

// roundedRect rasterizes an anti-aliased rounded rectangle into a w×h mask
func roundedRect(w, h int, x0, y0, x1, y1, r float32) *image.Alpha {
	const k = 0.5523 // cubic approximation of a quarter circle

	z := vector.NewRasterizer(w, h)
	z.MoveTo(x0+r, y0)
	z.LineTo(x1-r, y0)
	z.CubeTo(x1-r+r*k, y0, x1, y0+r-r*k, x1, y0+r)
	z.LineTo(x1, y1-r)
	z.CubeTo(x1, y1-r+r*k, x1-r+r*k, y1, x1-r, y1)
	z.LineTo(x0+r, y1)
	z.CubeTo(x0+r-r*k, y1, x0, y1-r+r*k, x0, y1-r)
	z.LineTo(x0, y0+r)
	z.CubeTo(x0, y0+r-r*k, x0+r-r*k, y0, x0+r, y0)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}
