package filter

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/anthonynsimon/bild/clone"
)

const (
	// VignetteStart is the fraction of the radius where darkening begins
	VignetteStart = 0.7
	// VignetteMax is the black opacity reached at the radius and beyond
	VignetteMax = 0.3

	// GrainSpecks is how many single-pixel specks are scattered per photo
	GrainSpecks = 1000
	// GrainMaxAlpha bounds the opacity of each speck
	GrainMaxAlpha = 0.1
)

// grain speck color, a saddle brown
var grainR, grainG, grainB = 139.0, 69.0, 19.0

// Vignette returns a copy of img with a radial darkening toward the edges
// and brown film grain. rng drives speck placement and opacity; pass a
// seeded source for reproducible output.
func Vignette(img *image.RGBA, rng *rand.Rand) *image.RGBA {
	if img == nil {
		return nil
	}

	b := img.Bounds()
	out := clone.AsRGBA(img)
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return out
	}

	cx := float64(b.Min.X) + float64(w)/2
	cy := float64(b.Min.Y) + float64(h)/2
	radius := math.Max(float64(w), float64(h)) / 2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		dy := float64(y) + 0.5 - cy
		for x := b.Min.X; x < b.Max.X; x++ {
			dx := float64(x) + 0.5 - cx
			a := VignetteAlpha(math.Hypot(dx, dy) / radius)
			if a == 0 {
				continue
			}
			i := out.PixOffset(x, y)
			keep := 1 - a
			out.Pix[i] = uint8(math.Round(float64(out.Pix[i]) * keep))
			out.Pix[i+1] = uint8(math.Round(float64(out.Pix[i+1]) * keep))
			out.Pix[i+2] = uint8(math.Round(float64(out.Pix[i+2]) * keep))
		}
	}

	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	for n := 0; n < GrainSpecks; n++ {
		x := b.Min.X + rng.IntN(w)
		y := b.Min.Y + rng.IntN(h)
		a := rng.Float64() * GrainMaxAlpha

		i := out.PixOffset(x, y)
		out.Pix[i] = blend(out.Pix[i], grainR, a)
		out.Pix[i+1] = blend(out.Pix[i+1], grainG, a)
		out.Pix[i+2] = blend(out.Pix[i+2], grainB, a)
	}

	return out
}

// VignetteAlpha is the black overlay opacity at normalized distance t from
// the center, where t == 1 is half the longer side
func VignetteAlpha(t float64) float64 {
	switch {
	case t <= VignetteStart:
		return 0
	case t >= 1:
		return VignetteMax
	default:
		return VignetteMax * (t - VignetteStart) / (1 - VignetteStart)
	}
}

func blend(dst uint8, src, alpha float64) uint8 {
	return uint8(math.Round(float64(dst)*(1-alpha) + src*alpha))
}
