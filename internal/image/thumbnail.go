package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

const (
	// DefaultThumbnailSize is the edge length, in pixels, of a grid thumbnail.
	DefaultThumbnailSize = 150

	// ThumbnailQuality is the JPEG quality used for every thumbnail.
	ThumbnailQuality = 82
)

// Thumbnail is a square JPEG-encoded image.
type Thumbnail struct {
	Data []byte
	Size int
}

// Base64 returns the JPEG bytes in standard base64.
func (t Thumbnail) Base64() string {
	return base64.StdEncoding.EncodeToString(t.Data)
}

// DataURI returns the thumbnail as an inline data URI suitable for an <img src>.
func (t Thumbnail) DataURI() string {
	return "data:image/jpeg;base64," + t.Base64()
}

// Flatten returns an opaque copy of img with any transparency composited over
// white. The result's bounds start at the origin.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// ToThumbnail centre-crops img to a square, resizes it to size x size with a
// Lanczos filter and encodes it as JPEG.
func ToThumbnail(img image.Image, size int) (Thumbnail, error) {
	if img == nil {
		return Thumbnail{}, fmt.Errorf("image cannot be nil")
	}
	if size <= 0 {
		return Thumbnail{}, fmt.Errorf("thumbnail size must be positive, got %d", size)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Thumbnail{}, fmt.Errorf("image has no pixels")
	}

	side := min(b.Dx(), b.Dy())
	square := Flatten(imaging.CropCenter(img, side, side))
	resized := imaging.Resize(square, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return Thumbnail{}, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return Thumbnail{Data: buf.Bytes(), Size: size}, nil
}

// Placeholder returns a size x size image filled with c. It stands in for any
// image that could not be fetched or decoded.
func Placeholder(size int, c color.Color) *image.RGBA {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// PlaceholderThumbnail returns the encoded thumbnail for Placeholder(size, c).
func PlaceholderThumbnail(size int, c color.Color) (Thumbnail, error) {
	return ToThumbnail(Placeholder(size, c), size)
}
