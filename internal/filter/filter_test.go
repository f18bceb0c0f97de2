package filter

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
)

func randomFrame(w, h int, seed uint64) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	return img
}

func TestPixel_ExtremesStayInRange(t *testing.T) {
	// Every corner of the RGB cube plus mid-gray; uint8 already bounds the
	// result, so the check is that clamping saturates instead of wrapping.
	values := []uint8{0, 1, 127, 128, 254, 255}
	for _, k := range Kinds() {
		for _, r := range values {
			for _, g := range values {
				for _, b := range values {
					in := color.RGBA{R: r, G: g, B: b, A: 255}
					out := Pixel(k, in)
					if out.A != 255 {
						t.Fatalf("%s: alpha changed to %d", k, out.A)
					}
				}
			}
		}
	}

	white := color.RGBA{255, 255, 255, 255}
	if got := Pixel(Sepia, white); got.R != 255 || got.G != 255 || got.B != 239 {
		t.Errorf("sepia(white) = %v, want {255 255 239}", got)
	}
	if got := Pixel(WashedBlue, white); got.B != 255 {
		t.Errorf("washedBlue(white).B = %d, want 255 (saturated)", got.B)
	}
}

func TestPixel_KnownValues(t *testing.T) {
	in := color.RGBA{R: 100, G: 150, B: 200, A: 255}

	tests := []struct {
		kind Kind
		want color.RGBA
	}{
		{None, color.RGBA{100, 150, 200, 255}},
		// blue channel lands exactly on 133.5 and rounds half to even
		{Sepia, color.RGBA{192, 171, 134, 255}},
		// .299*100+.587*150+.114*200 = 140.75
		{Grayscale, color.RGBA{141, 141, 141, 255}},
		{BlackAndWhite, color.RGBA{141, 141, 141, 255}},
		{Vintage, color.RGBA{100, 165, 130, 255}},
		{Copper, color.RGBA{155, 150, 130, 255}},
		{WashedBlue, color.RGBA{90, 142, 245, 255}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := Pixel(tt.kind, in)
			if got != tt.want {
				t.Errorf("Pixel(%s, %v) = %v, want %v", tt.kind, in, got, tt.want)
			}
		})
	}
}

func TestApply_NoneIsIdentityAndAliases(t *testing.T) {
	img := randomFrame(16, 9, 1)
	out := Apply(img, None)
	if out != img {
		t.Fatal("Apply(None) allocated a new buffer")
	}
}

func TestApply_DoesNotMutateSource(t *testing.T) {
	img := randomFrame(32, 24, 2)
	before := make([]byte, len(img.Pix))
	copy(before, img.Pix)

	for _, k := range Kinds() {
		out := Apply(img, k)
		if out.Bounds() != img.Bounds() {
			t.Errorf("%s: bounds %v, want %v", k, out.Bounds(), img.Bounds())
		}
	}

	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatalf("source pixel byte %d changed", i)
		}
	}
}

func TestApply_MatchesPixel(t *testing.T) {
	img := randomFrame(20, 10, 3)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	for _, k := range Kinds() {
		out := Apply(img, k)
		for y := 0; y < 10; y++ {
			for x := 0; x < 20; x++ {
				want := Pixel(k, img.RGBAAt(x, y))
				if got := out.RGBAAt(x, y); got != want {
					t.Fatalf("%s at (%d,%d): got %v, want %v", k, x, y, got, want)
				}
			}
		}
	}
}

func TestParse(t *testing.T) {
	tests := map[string]Kind{
		"":                None,
		"none":            None,
		"Original":        None,
		"sepia":           Sepia,
		"GRAYSCALE":       Grayscale,
		"blackAndWhite":   BlackAndWhite,
		"blackwhite":      BlackAndWhite,
		"black-and-white": BlackAndWhite,
		"washedblue":      WashedBlue,
		"washed_blue":     WashedBlue,
		"copper":          Copper,
		"vintage":         Vintage,
	}
	for in, want := range tests {
		got, err := Parse(in)
		if err != nil {
			t.Errorf("Parse(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Parse(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := Parse("lomo"); err == nil {
		t.Error("Parse(lomo) succeeded, want error")
	}
}

func TestMirror(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(2, 0, color.RGBA{0, 0, 255, 255})

	out := Mirror(img)
	if got := out.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("left pixel after mirror = %v, want blue", got)
	}
	if got := out.RGBAAt(2, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("right pixel after mirror = %v, want red", got)
	}
}
