// Package colour provides colour sampling and conversion for grid tiles.
package colour

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents a color in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a lowercase hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// RGBA implements color.Color.
func (rgb RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 0xff}.RGBA()
}

// HSL returns the normalised hue, saturation and lightness of the colour.
func (rgb RGB) HSL() (h, s, l float64) {
	return RGBToHSL(rgb.R, rgb.G, rgb.B)
}

// ToRGB converts a color.Color to RGB, compositing any transparency over white.
func ToRGB(c color.Color) RGB {
	r, g, b, a := c.RGBA()
	// RGBA returns alpha-premultiplied values in [0, 65535].
	bg := 0xffff - a
	return RGB{
		R: uint8((r + bg) >> 8),
		G: uint8((g + bg) >> 8),
		B: uint8((b + bg) >> 8),
	}
}

// ParseHex parses "#rrggbb" or "#rgb" (case-insensitive).
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Sample is one representative colour taken from an image.
type Sample struct {
	RGB RGB    `json:"rgb"`
	Hex string `json:"hex"`
}

// NewSample builds a Sample, keeping Hex in the canonical lowercase form.
func NewSample(rgb RGB) Sample {
	return Sample{RGB: rgb, Hex: rgb.Hex()}
}
