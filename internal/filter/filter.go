// Package filter implements the booth's color transforms.
//
// Apply is pure and deterministic. Vignette adds the decorative darkening
// and grain that captured photos get; it is random by nature and only its
// distribution is stable.
package filter

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/transform"
)

// Kind identifies a color transform
type Kind string

const (
	None          Kind = "none"
	Sepia         Kind = "sepia"
	Grayscale     Kind = "grayscale"
	Vintage       Kind = "vintage"
	Copper        Kind = "copper"
	BlackAndWhite Kind = "blackAndWhite"
	WashedBlue    Kind = "washedBlue"
)

var kinds = []Kind{None, Sepia, Grayscale, Vintage, Copper, BlackAndWhite, WashedBlue}

var labels = map[Kind]string{
	None:          "Original",
	Sepia:         "Sepia",
	Grayscale:     "B&W",
	Vintage:       "Vintage",
	Copper:        "Copper",
	BlackAndWhite: "B&W+",
	WashedBlue:    "Washed",
}

// Kinds returns every supported filter in display order
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Label returns the short display name for the filter
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Valid reports whether k is one of the supported filters
func (k Kind) Valid() bool {
	_, ok := labels[k]
	return ok
}

// Parse resolves a filter name. Matching ignores case and accepts the
// legacy identifiers "blackwhite" and "washedblue".
func Parse(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	if norm == "" {
		return None, nil
	}
	for _, k := range kinds {
		if strings.ToLower(string(k)) == norm {
			return k, nil
		}
	}
	switch norm {
	case "blackwhite", "bw":
		return BlackAndWhite, nil
	case "gray", "grey", "greyscale":
		return Grayscale, nil
	case "original":
		return None, nil
	}
	return None, fmt.Errorf("unknown filter %q", s)
}

// Pixel applies the filter's transform to a single color. Alpha is untouched.
func Pixel(k Kind, c color.RGBA) color.RGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)

	switch k {
	case Sepia:
		return color.RGBA{
			R: clamp(.393*r + .769*g + .189*b),
			G: clamp(.349*r + .686*g + .168*b),
			B: clamp(.272*r + .534*g + .131*b),
			A: c.A,
		}
	case Grayscale, BlackAndWhite:
		y := clamp(.299*r + .587*g + .114*b)
		return color.RGBA{R: y, G: y, B: y, A: c.A}
	case Vintage:
		return color.RGBA{
			R: clamp(.8*r + 20),
			G: clamp(.9*g + 30),
			B: clamp(.6*b + 10),
			A: c.A,
		}
	case Copper:
		return color.RGBA{
			R: clamp(.7*r + .3*g + 40),
			G: clamp(.4*r + .6*g + 20),
			B: clamp(.2*r + .2*g + .4*b),
			A: c.A,
		}
	case WashedBlue:
		return color.RGBA{
			R: clamp(.8*r + 10),
			G: clamp(.85*g + 15),
			B: clamp(1.1*b + 25),
			A: c.A,
		}
	default:
		return c
	}
}

// Apply returns img transformed by k. For None (or an unknown kind) the
// input buffer itself is returned; callers must not mutate it afterwards.
func Apply(img *image.RGBA, k Kind) *image.RGBA {
	if img == nil || k == None || !k.Valid() {
		return img
	}
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return Pixel(k, c)
	})
}

// Mirror flips the frame horizontally, the way a selfie preview looks
func Mirror(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	return transform.FlipH(img)
}

// clamp rounds half to even and clamps into a byte, matching how browsers
// store floats into clamped 8-bit pixel arrays
func clamp(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
