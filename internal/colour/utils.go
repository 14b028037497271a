package colour

import (
	"image/color"
	"math"
)

// AchromaticSaturation is the saturation below which a colour is treated as a
// grey for hue ordering.
const AchromaticSaturation = 0.1

// RGBToHSL converts 8-bit RGB to hue, saturation and lightness, each in [0, 1].
func RGBToHSL(r8, g8, b8 uint8) (h, s, l float64) {
	r := float64(r8) / 255.0
	g := float64(g8) / 255.0
	b := float64(b8) / 255.0

	maxVal := math.Max(r, math.Max(g, b))
	minVal := math.Min(r, math.Min(g, b))
	delta := maxVal - minVal

	l = (maxVal + minVal) / 2.0

	if delta == 0 {
		return 0, 0, l
	}

	s = delta / (1 - math.Abs(2*l-1))
	// Guard against rounding pushing s a hair above 1 at the extremes.
	s = math.Min(s, 1)

	// Hue in sixths of the wheel, offset by the dominant channel.
	switch maxVal {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}

	h /= 6
	if h < 0 {
		h++
	}
	return h, s, l
}

// IsAchromatic reports whether a saturation value counts as grey.
func IsAchromatic(s float64) bool {
	return s < AchromaticSaturation
}

// Luminance calculates the relative luminance of a colour according to WCAG 2.0.
// Returns a value between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func Luminance(c color.Color) float64 {
	rgb := ToRGB(c)
	rf := gammaCorrect(float64(rgb.R) / 255.0)
	rg := gammaCorrect(float64(rgb.G) / 255.0)
	rb := gammaCorrect(float64(rgb.B) / 255.0)

	return 0.2126*rf + 0.7152*rg + 0.0722*rb
}

// gammaCorrect applies gamma correction to a colour component.
func gammaCorrect(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
