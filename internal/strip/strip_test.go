package strip

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/anthonynsimon/bild/imgio"
)

func solid(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func photos(n int) []image.Image {
	cols := []color.RGBA{
		{220, 30, 30, 255},
		{30, 220, 30, 255},
		{30, 30, 220, 255},
		{220, 220, 30, 255},
	}
	out := make([]image.Image, n)
	for i := range out {
		out[i] = solid(64, 48, cols[i%len(cols)])
	}
	return out
}

var day = time.Date(2025, time.January, 5, 14, 30, 0, 0, time.UTC)

func TestSize(t *testing.T) {
	tests := []struct {
		name          string
		opts          Options
		n             int
		width, height int
	}{
		{"vertical 2 no text", Options{Layout: Vertical}, 2, 360, 400*2 + 20*3 + 20 + 20},
		{"vertical 2 caption", Options{Layout: Vertical, Caption: "hi"}, 2, 360, 400*2 + 20*3 + 20 + 80},
		{"vertical 3 date", Options{Layout: Vertical, IncludeDate: true}, 3, 360, 1680},
		{"horizontal 4 no text", Options{Layout: Horizontal}, 4, 300*4 + 20*5 + 20, 400 + 60 + 20},
		{"horizontal 4 caption", Options{Layout: Horizontal, Caption: "x"}, 4, 1320, 540},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Size(tt.opts, tt.n)
			if w != tt.width || h != tt.height {
				t.Errorf("Size = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
		})
	}
}

func TestComposeDimensions(t *testing.T) {
	tests := []struct {
		layout Layout
		n      int
	}{
		{Vertical, 2},
		{Vertical, 3},
		{Horizontal, 4},
	}
	for _, tt := range tests {
		opts := Options{Layout: tt.layout, FrameColor: Cream, Caption: "Booth"}
		s, err := Compose(photos(tt.n), opts, day)
		if err != nil {
			t.Fatalf("Compose(%s, %d): %v", tt.layout, tt.n, err)
		}
		w, h := Size(opts, tt.n)
		if s.Bounds().Dx() != w || s.Bounds().Dy() != h {
			t.Errorf("%s/%d: bounds %v, want %dx%d", tt.layout, tt.n, s.Bounds(), w, h)
		}
		if s.Photos != tt.n {
			t.Errorf("Photos = %d, want %d", s.Photos, tt.n)
		}
	}
}

func TestComposeFriendsScenario(t *testing.T) {
	opts := Options{Layout: Vertical, FrameColor: White, Caption: "Friends", IncludeDate: true}
	s, err := Compose(photos(3), opts, day)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if s.Bounds().Dx() != 360 || s.Bounds().Dy() != 1680 {
		t.Fatalf("bounds = %v, want 360x1680", s.Bounds())
	}

	// caption sits on baseline height-60, the date 30 below it
	if !hasInk(s.Image, 1680-60-20, 1680-60, darkText) {
		t.Error("caption not rendered")
	}
	if !hasInk(s.Image, 1680-30-12, 1680-30, darkText) {
		t.Error("date not rendered")
	}
}

func TestComposeDateOnlyUsesCaptionLine(t *testing.T) {
	opts := Options{Layout: Vertical, FrameColor: White, IncludeDate: true}
	s, err := Compose(photos(2), opts, day)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	h := s.Bounds().Dy()
	if !hasInk(s.Image, h-60-12, h-60, darkText) {
		t.Error("date should be drawn at height-60 without a caption")
	}
	if hasInk(s.Image, h-30-10, h-30, darkText) {
		t.Error("nothing should be drawn on the second text line")
	}
}

func TestComposeNoTextBand(t *testing.T) {
	s, err := Compose(photos(2), Options{Layout: Vertical, FrameColor: Cream}, day)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	bg := Cream.RGBA()
	last := Cell(Vertical, 1)
	for y := last.Max.Y + 2; y < s.Bounds().Dy(); y++ {
		for x := 0; x < s.Bounds().Dx(); x++ {
			if got := s.Image.RGBAAt(x, y); got != bg {
				t.Fatalf("pixel (%d,%d) = %v, want background %v", x, y, got, bg)
			}
		}
	}
}

func TestComposeTextColorOnBlack(t *testing.T) {
	opts := Options{Layout: Horizontal, FrameColor: Black, Caption: "Night"}
	s, err := Compose(photos(2), opts, day)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	h := s.Bounds().Dy()
	if !hasInk(s.Image, h-60-20, h-60, lightText) {
		t.Error("caption on black frame should be light")
	}
	if Black.TextColor() != lightText || Cream.TextColor() != darkText || DustyPink.TextColor() != darkText {
		t.Error("unexpected text colors")
	}
}

func TestComposePhotoPlacement(t *testing.T) {
	in := photos(3)
	s, err := Compose(in, Options{Layout: Vertical, FrameColor: White}, day)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for i, p := range in {
		cell := Cell(Vertical, i)
		center := image.Pt((cell.Min.X+cell.Max.X)/2, (cell.Min.Y+cell.Max.Y)/2)
		want := p.(*image.RGBA).RGBAAt(0, 0)
		if got := s.Image.RGBAAt(center.X, center.Y); !near(got, want) {
			t.Errorf("photo %d center = %v, want %v", i, got, want)
		}

		// rounded corner leaves the cell corner mostly background
		if c := s.Image.RGBAAt(cell.Min.X, cell.Min.Y); c.G < 200 || c.B < 200 {
			t.Errorf("photo %d corner = %v, want background", i, c)
		}

		// stroke straddles the left edge
		edge := s.Image.RGBAAt(cell.Min.X-1, center.Y)
		if edge.R >= 250 || edge.R != edge.G || edge.G != edge.B {
			t.Errorf("photo %d left stroke = %v, want light gray", i, edge)
		}
	}
}

func TestComposeHorizontalOrder(t *testing.T) {
	in := photos(4)
	s, err := Compose(in, Options{Layout: Horizontal}, day)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for i, p := range in {
		cell := Cell(Horizontal, i)
		want := p.(*image.RGBA).RGBAAt(0, 0)
		if got := s.Image.RGBAAt(cell.Min.X+PhotoWidth/2, cell.Min.Y+PhotoHeight/2); !near(got, want) {
			t.Errorf("photo %d = %v, want %v", i, got, want)
		}
	}
	if s.Options.FrameColor != White {
		t.Errorf("default frame color = %s, want white", s.Options.FrameColor)
	}
}

func TestComposeIdempotent(t *testing.T) {
	in := photos(3)
	opts := Options{Layout: Vertical, FrameColor: DustyPink, Caption: "Again", IncludeDate: true}

	a, err := Compose(in, opts, day)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compose(in, opts, day)
	if err != nil {
		t.Fatal(err)
	}
	if a.Bounds() != b.Bounds() {
		t.Fatalf("bounds differ: %v vs %v", a.Bounds(), b.Bounds())
	}
	if !bytes.Equal(a.Image.Pix, b.Image.Pix) {
		t.Error("identical inputs produced different pixels")
	}
}

func TestComposeErrors(t *testing.T) {
	if _, err := Compose(nil, Options{}, day); !errors.Is(err, ErrCompositionFailed) {
		t.Errorf("empty photos: got %v, want ErrCompositionFailed", err)
	}
	if _, err := Compose([]image.Image{nil}, Options{}, day); !errors.Is(err, ErrCompositionFailed) {
		t.Errorf("nil photo: got %v, want ErrCompositionFailed", err)
	}
	if _, err := Compose(photos(1), Options{Layout: "diagonal"}, day); !errors.Is(err, ErrCompositionFailed) {
		t.Errorf("bad layout: got %v, want ErrCompositionFailed", err)
	}
}

func TestEncode(t *testing.T) {
	s, err := Compose(photos(2), Options{Layout: Vertical}, day)
	if err != nil {
		t.Fatal(err)
	}
	data, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != s.Bounds() {
		t.Errorf("decoded bounds %v, want %v", img.Bounds(), s.Bounds())
	}

	var empty *Strip
	if _, err := empty.Encode(); !errors.Is(err, ErrEncodingFailed) {
		t.Errorf("nil strip: got %v, want ErrEncodingFailed", err)
	}
}

func TestEncodeWith(t *testing.T) {
	s, err := Compose(photos(1), Options{Layout: Vertical}, day)
	if err != nil {
		t.Fatal(err)
	}

	failing := func(io.Writer, image.Image) error { return errors.New("disk full") }
	if err := s.EncodeWith(failing); !errors.Is(err, ErrEncodingFailed) {
		t.Fatalf("got %v, want ErrEncodingFailed", err)
	}
	if s.PNG != nil {
		t.Error("failed encode should not leave bytes behind")
	}

	if err := s.EncodeWith(imgio.PNGEncoder()); err != nil {
		t.Fatalf("EncodeWith: %v", err)
	}
	data, err := s.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, s.PNG) {
		t.Error("Encode should return the cached bytes")
	}
}

func TestFilenameAndDate(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got := Filename(at); got != "photo-strip-1700000000123.png" {
		t.Errorf("Filename = %q", got)
	}
	if got := DateText(day); got != "January 5, 2025" {
		t.Errorf("DateText = %q", got)
	}
}

func TestParse(t *testing.T) {
	if l, err := ParseLayout("Horizontal"); err != nil || l != Horizontal {
		t.Errorf("ParseLayout = %s, %v", l, err)
	}
	if _, err := ParseLayout("grid"); err == nil {
		t.Error("ParseLayout should reject grid")
	}
	if c, err := ParseFrameColor("dusty-pink"); err != nil || c != DustyPink {
		t.Errorf("ParseFrameColor = %s, %v", c, err)
	}
	if _, err := ParseFrameColor("teal"); err == nil {
		t.Error("ParseFrameColor should reject teal")
	}
	if got := FrameColor("teal").RGBA(); got != White.RGBA() {
		t.Errorf("unknown color fill = %v, want white", got)
	}
}

// hasInk reports whether any pixel in rows [y0, y1) is close to c
func hasInk(img *image.RGBA, y0, y1 int, c color.RGBA) bool {
	for y := y0; y < y1; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			p := img.RGBAAt(x, y)
			if absDiff(p.R, c.R) < 40 && absDiff(p.G, c.G) < 40 && absDiff(p.B, c.B) < 40 {
				return true
			}
		}
	}
	return false
}

// near allows for rounding in the resampler
func near(a, b color.RGBA) bool {
	return absDiff(a.R, b.R) <= 2 && absDiff(a.G, b.G) <= 2 && absDiff(a.B, b.B) <= 2
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
