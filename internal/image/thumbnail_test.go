package image

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
)

func TestToThumbnailIsAlwaysSquare(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		size          int
	}{
		{name: "landscape", width: 400, height: 120, size: 150},
		{name: "portrait", width: 90, height: 600, size: 150},
		{name: "square", width: 300, height: 300, size: 150},
		{name: "smaller than target", width: 20, height: 33, size: 150},
		{name: "one pixel", width: 1, height: 1, size: 64},
		{name: "custom size", width: 640, height: 480, size: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			thumb, err := ToThumbnail(src, tt.size)
			if err != nil {
				t.Fatalf("ToThumbnail() error = %v", err)
			}
			if thumb.Size != tt.size {
				t.Errorf("Size = %d, want %d", thumb.Size, tt.size)
			}

			cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb.Data))
			if err != nil {
				t.Fatalf("DecodeConfig() error = %v", err)
			}
			if format != "jpeg" {
				t.Errorf("format = %q, want jpeg", format)
			}
			if cfg.Width != tt.size || cfg.Height != tt.size {
				t.Errorf("thumbnail is %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.size, tt.size)
			}
		})
	}
}

// TestToThumbnailOffsetBounds tests images whose bounds do not start at the origin.
func TestToThumbnailOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(50, 70, 250, 170))
	thumb, err := ToThumbnail(src, 32)
	if err != nil {
		t.Fatalf("ToThumbnail() error = %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb.Data))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 32 {
		t.Errorf("thumbnail is %dx%d, want 32x32", cfg.Width, cfg.Height)
	}
}

// TestToThumbnailCompositesOverWhite tests that transparent pixels become white.
func TestToThumbnailCompositesOverWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 40)) // fully transparent
	thumb, err := ToThumbnail(src, 16)
	if err != nil {
		t.Fatalf("ToThumbnail() error = %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(thumb.Data))
	if err != nil {
		t.Fatalf("jpeg.Decode() error = %v", err)
	}
	r, g, b, _ := decoded.At(8, 8).RGBA()
	if r>>8 < 245 || g>>8 < 245 || b>>8 < 245 {
		t.Errorf("centre pixel = (%d, %d, %d), want near white", r>>8, g>>8, b>>8)
	}
}

// TestToThumbnailCropsCentre tests that the crop keeps the middle of a wide image.
func TestToThumbnailCropsCentre(t *testing.T) {
	// Red left third, blue middle, red right third: the square crop is all blue.
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 100 && x < 200 {
				c = color.RGBA{B: 255, A: 255}
			}
			src.Set(x, y, c)
		}
	}

	thumb, err := ToThumbnail(src, 20)
	if err != nil {
		t.Fatalf("ToThumbnail() error = %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(thumb.Data))
	if err != nil {
		t.Fatalf("jpeg.Decode() error = %v", err)
	}
	r, _, b, _ := decoded.At(10, 10).RGBA()
	if b>>8 < 200 || r>>8 > 60 {
		t.Errorf("centre pixel r=%d b=%d, want blue", r>>8, b>>8)
	}
}

func TestToThumbnailErrors(t *testing.T) {
	if _, err := ToThumbnail(nil, 150); err == nil {
		t.Error("Expected error for nil image")
	}
	if _, err := ToThumbnail(image.NewRGBA(image.Rect(0, 0, 10, 10)), 0); err == nil {
		t.Error("Expected error for zero size")
	}
	if _, err := ToThumbnail(image.NewRGBA(image.Rect(0, 0, 0, 10)), 10); err == nil {
		t.Error("Expected error for empty image")
	}
}

func TestThumbnailDataURI(t *testing.T) {
	thumb := Thumbnail{Data: []byte{0xff, 0xd8}, Size: 1}
	if got := thumb.DataURI(); got != "data:image/jpeg;base64,/9g=" {
		t.Errorf("DataURI() = %q", got)
	}
}

func TestPlaceholder(t *testing.T) {
	grey := color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	img := Placeholder(100, grey)
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Errorf("Placeholder() bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(50, 50); got != grey {
		t.Errorf("Placeholder() pixel = %v, want %v", got, grey)
	}

	thumb, err := PlaceholderThumbnail(150, grey)
	if err != nil {
		t.Fatalf("PlaceholderThumbnail() error = %v", err)
	}
	if !strings.HasPrefix(thumb.DataURI(), "data:image/jpeg;base64,") {
		t.Errorf("DataURI() has wrong prefix")
	}
}
