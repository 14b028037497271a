package colour

import (
	"fmt"
	"image"
	"math"
	"math/rand"
)

// DefaultMargin is the fraction of width and height excluded on each side when
// sampling, so pixels come from [0.2W, 0.8W) x [0.2H, 0.8H). Edges of search
// thumbnails are often background or letterboxing.
const DefaultMargin = 0.2

// Sampler picks one random pixel from the central region of an image.
// It is a sampling heuristic, not a dominant-colour extractor: two calls on
// the same image usually return different colours.
// A Sampler is not safe for concurrent use.
type Sampler struct {
	margin float64
	rng    *rand.Rand
}

// NewSampler creates a Sampler with DefaultMargin and the given seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{
		margin: DefaultMargin,
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404 -- sampling, not security
	}
}

// WithMargin returns the sampler with a different edge margin.
func (s *Sampler) WithMargin(margin float64) (*Sampler, error) {
	if err := ValidateMargin(margin); err != nil {
		return nil, err
	}
	s.margin = margin
	return s, nil
}

// ValidateMargin checks that margin leaves a non-empty centre.
func ValidateMargin(margin float64) error {
	if math.IsNaN(margin) || margin < 0 || margin >= 0.5 {
		return fmt.Errorf("sample margin must be in [0, 0.5), got %v", margin)
	}
	return nil
}

// Sample returns the colour of one uniformly chosen pixel inside the central
// region of img. Transparent pixels are composited over white.
func (s *Sampler) Sample(img image.Image) Sample {
	region := CentralRegion(img.Bounds(), s.margin)
	x := region.Min.X + s.rng.Intn(region.Dx())
	y := region.Min.Y + s.rng.Intn(region.Dy())
	return NewSample(ToRGB(img.At(x, y)))
}

// CentralRegion returns the sub-rectangle of bounds that excludes margin of
// the width and height on each side. Images too small to have a centre band
// collapse to their middle pixel; the result is never empty for non-empty bounds.
func CentralRegion(bounds image.Rectangle, margin float64) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()

	mx := int(math.Floor(margin * float64(w)))
	my := int(math.Floor(margin * float64(h)))
	x0, x1 := bounds.Min.X+mx, bounds.Max.X-mx
	y0, y1 := bounds.Min.Y+my, bounds.Max.Y-my

	if x1 <= x0 {
		x0 = bounds.Min.X + w/2
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y0 = bounds.Min.Y + h/2
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}
