// Package seed resolves the seeds behind the grid's two random operations: the
// reveal shuffle and the per-image colour sample. Fixing a seed makes a run
// reproducible.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"math/rand"
	"slices"
	"time"
)

// Mode determines how per-image sampler seeds are derived.
type Mode string

const (
	// ModeRandom draws a fresh base seed per run (default).
	ModeRandom Mode = "random"
	// ModeManual uses a user-provided base seed.
	ModeManual Mode = "manual"
	// ModeContent seeds each image's sampler from a hash of its pixels, so the
	// same image always yields the same colour.
	ModeContent Mode = "content"
	// ModeURL seeds each image's sampler from a hash of its source URL.
	ModeURL Mode = "url"
)

// Config holds configuration for seed generation.
type Config struct {
	Mode  Mode   // Seed mode
	Value *int64 // Base seed (required when Mode is ModeManual, optional otherwise)
}

// Base returns the run-level seed used for the reveal shuffle and as the root
// of index-derived sampler seeds.
func (c Config) Base() (int64, error) {
	switch c.Mode {
	case ModeManual:
		if c.Value == nil {
			return 0, fmt.Errorf("seed value is required for manual seed mode")
		}
		return *c.Value, nil
	case ModeRandom, ModeContent, ModeURL, "":
		if c.Value != nil {
			return *c.Value, nil
		}
		return GenerateRandomSeed(), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", c.Mode)
	}
}

// ForImage returns the sampler seed for the image at index.
// img is required for ModeContent, sourceURL for ModeURL.
func ForImage(mode Mode, base int64, index int, img image.Image, sourceURL string) (int64, error) {
	switch mode {
	case ModeContent:
		return CalculateContentSeed(img)
	case ModeURL:
		if sourceURL == "" {
			return 0, fmt.Errorf("source URL is required for url seed mode")
		}
		return CalculateURLSeed(sourceURL), nil
	case ModeRandom, ModeManual, "":
		return Derive(base, index), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", mode)
	}
}

// Derive mixes base and index into an independent seed (splitmix64 finaliser),
// so neighbouring indices do not produce correlated sequences.
func Derive(base int64, index int) int64 {
	z := uint64(base) + uint64(index+1)*0x9e3779b97f4a7c15 // #nosec G115 -- bit mixing
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31)) // #nosec G115 -- bit mixing
}

// CalculateContentSeed generates a deterministic seed from image content.
// This hashes the pixel data to create a seed that's consistent for the same image content.
func CalculateContentSeed(img image.Image) (int64, error) {
	if img == nil {
		return 0, fmt.Errorf("image cannot be nil")
	}

	bounds := img.Bounds()
	hasher := sha256.New()

	dimBytes := make([]byte, 8)
	binary.LittleEndian.PutUint32(dimBytes[0:4], uint32(bounds.Dx())) // #nosec G115 -- image dimensions are safe to convert
	binary.LittleEndian.PutUint32(dimBytes[4:8], uint32(bounds.Dy())) // #nosec G115 -- image dimensions are safe to convert
	hasher.Write(dimBytes)

	// A grid of roughly 100x100 samples is enough to tell images apart.
	step := max(bounds.Dx()/100, bounds.Dy()/100, 1)
	pixelBytes := make([]byte, 4)

	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			pixelBytes[0] = byte(r >> 8)
			pixelBytes[1] = byte(g >> 8)
			pixelBytes[2] = byte(b >> 8)
			pixelBytes[3] = byte(a >> 8)
			hasher.Write(pixelBytes)
		}
	}

	hash := hasher.Sum(nil)
	return int64(binary.LittleEndian.Uint64(hash[:8])), nil // #nosec G115 -- hash conversion is safe
}

// CalculateURLSeed generates a deterministic seed from a source URL.
func CalculateURLSeed(sourceURL string) int64 {
	hash := sha256.Sum256([]byte(sourceURL))
	return int64(binary.LittleEndian.Uint64(hash[:8])) // #nosec G115 -- hash conversion is safe
}

// GenerateRandomSeed generates a non-deterministic random seed.
func GenerateRandomSeed() int64 {
	// #nosec G404 -- Random seed generation is intentionally non-deterministic
	return time.Now().UnixNano() + int64(rand.Intn(1000000))
}

// ValidModes returns a list of valid seed modes.
func ValidModes() []Mode {
	return []Mode{ModeRandom, ModeManual, ModeContent, ModeURL}
}

// ParseMode converts a string to a Mode.
// Returns an error if the string is not a valid mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: random, manual, content, url)", s)
}
