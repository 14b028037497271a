package colour

import (
	"image/color"
	"testing"
)

func TestToRGB(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  RGB
	}{
		{
			name:  "red",
			color: color.RGBA{R: 255, G: 0, B: 0, A: 255},
			want:  RGB{R: 255, G: 0, B: 0},
		},
		{
			name:  "white",
			color: color.RGBA{R: 255, G: 255, B: 255, A: 255},
			want:  RGB{R: 255, G: 255, B: 255},
		},
		{
			name:  "black",
			color: color.RGBA{R: 0, G: 0, B: 0, A: 255},
			want:  RGB{R: 0, G: 0, B: 0},
		},
		{
			name:  "transparent becomes white",
			color: color.NRGBA{R: 0, G: 0, B: 0, A: 0},
			want:  RGB{R: 255, G: 255, B: 255},
		},
		{
			name:  "gray16",
			color: color.Gray16{Y: 0x8080},
			want:  RGB{R: 128, G: 128, B: 128},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToRGB(tt.color); got != tt.want {
				t.Errorf("ToRGB() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRGBHex(t *testing.T) {
	tests := []struct {
		rgb  RGB
		want string
	}{
		{RGB{R: 255, G: 0, B: 0}, "#ff0000"},
		{RGB{R: 0, G: 0, B: 0}, "#000000"},
		{RGB{R: 0xAB, G: 0xCD, B: 0xEF}, "#abcdef"},
		{RGB{R: 1, G: 2, B: 3}, "#010203"},
	}

	for _, tt := range tests {
		if got := tt.rgb.Hex(); got != tt.want {
			t.Errorf("%v.Hex() = %q, want %q", tt.rgb, got, tt.want)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{in: "#f0f0f0", want: RGB{R: 0xf0, G: 0xf0, B: 0xf0}},
		{in: "#F0F0F0", want: RGB{R: 0xf0, G: 0xf0, B: 0xf0}},
		{in: " #0000ff ", want: RGB{B: 0xff}},
		{in: "#fff", want: RGB{R: 0xff, G: 0xff, B: 0xff}},
		{in: "f0f0f0", wantErr: true},
		{in: "#zzzzzz", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHex() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseHex() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSample(t *testing.T) {
	s := NewSample(RGB{R: 0x12, G: 0x34, B: 0x56})
	if s.Hex != "#123456" {
		t.Errorf("Hex = %q, want #123456", s.Hex)
	}
}
