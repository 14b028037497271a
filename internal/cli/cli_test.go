// Package cli_test provides tests for the CLI package.
package cli_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/colordots/internal/cli"
)

func pngDataURI(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// run executes the CLI with args and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	rootCmd := cli.NewRootCmd()
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func urlArgs(t *testing.T) []string {
	t.Helper()
	return []string{
		"--url", pngDataURI(t, color.RGBA{R: 0xff, A: 0xff}),
		"--url", pngDataURI(t, color.RGBA{B: 0xff, A: 0xff}),
		"--url", pngDataURI(t, color.RGBA{G: 0xff, A: 0xff}),
	}
}

// TestVersionCommand tests the version subcommand.
func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "colordots version ") {
		t.Errorf("version output = %q", out)
	}
}

// TestSearchCommand tests the search command output formats.
func TestSearchCommand(t *testing.T) {
	t.Run("HexSortedByColour", func(t *testing.T) {
		args := append([]string{"search", "-f", "hex", "--sort", "color", "--seed", "1"}, urlArgs(t)...)
		out, stderr, err := run(t, args...)
		if err != nil {
			t.Fatalf("search error = %v (stderr: %s)", err, stderr)
		}
		if want := "#0000ff\n#00ff00\n#ff0000\n"; out != want {
			t.Errorf("output = %q, want %q", out, want)
		}
		if !strings.Contains(stderr, "3 images, 0 failed") {
			t.Errorf("stderr = %q, want summary", stderr)
		}
	})

	t.Run("HueWithQuiet", func(t *testing.T) {
		args := append([]string{"search", "-q", "-f", "hex", "-s", "hue"}, urlArgs(t)...)
		out, stderr, err := run(t, args...)
		if err != nil {
			t.Fatalf("search error = %v", err)
		}
		if want := "#ff0000\n#00ff00\n#0000ff\n"; out != want {
			t.Errorf("output = %q, want %q", out, want)
		}
		if stderr != "" {
			t.Errorf("quiet run wrote to stderr: %q", stderr)
		}
	})

	t.Run("PreviewIsPlainWhenPiped", func(t *testing.T) {
		args := append([]string{"search"}, urlArgs(t)...)
		out, _, err := run(t, args...)
		if err != nil {
			t.Fatalf("search error = %v", err)
		}
		if strings.Contains(out, "\033[") {
			t.Error("piped preview contains ANSI escapes")
		}
		if strings.Count(out, "\n") != 10 {
			t.Errorf("preview rows = %d, want 10", strings.Count(out, "\n"))
		}
	})

	t.Run("JSONToFile", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "grid.json")
		args := append([]string{"search", "-f", "json", "-o", outFile}, urlArgs(t)...)
		out, _, err := run(t, args...)
		if err != nil {
			t.Fatalf("search error = %v", err)
		}
		if out != "" {
			t.Errorf("stdout = %q, want empty when writing to a file", out)
		}

		data, err := os.ReadFile(outFile)
		if err != nil {
			t.Fatal(err)
		}
		var payload struct {
			Slots []struct {
				Color string `json:"color"`
			} `json:"slots"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(payload.Slots) != 100 {
			t.Errorf("slots = %d, want 100", len(payload.Slots))
		}
	})
}

func TestSearchFromList(t *testing.T) {
	dir := t.TempDir()
	listFile := filepath.Join(dir, "urls.txt")
	content := "# test images\n" + pngDataURI(t, color.White) + "\nftp://example.com/unsupported.png\n"
	if err := os.WriteFile(listFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, stderr, err := run(t, "search", "--list", listFile, "-f", "hex", "-s", "color")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if want := "#f0f0f0\n#ffffff\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if !strings.Contains(stderr, "1 failed") {
		t.Errorf("stderr = %q, want one failure", stderr)
	}
}

// TestSearchErrors tests the search command rejects bad input.
func TestSearchErrors(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configFile, []byte("pipeline:\n  workers: 99\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"NoSource", []string{"search"}},
		{"BadSort", append([]string{"search", "--sort", "size"}, "--url", "https://x/a.jpg")},
		{"BadFormat", []string{"search", "-f", "svg", "--url", pngDataURI(t, color.Black)}},
		{"BadWorkers", []string{"search", "--workers", "0", "--url", "https://x/a.jpg"}},
		{"PageWithoutQuery", []string{"search", "--page", "https://example.com/?q={query}"}},
		{"BadConfig", []string{"--config", configFile, "search", "--url", "https://x/a.jpg"}},
		{"ManualSeedModeWithoutSeed", []string{"search", "--seed-mode", "manual", "--url", "https://x/a.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, tt.args...); err == nil {
				t.Errorf("%v: expected error", tt.args)
			}
		})
	}
}

func TestServeRejectsBadConfig(t *testing.T) {
	if _, _, err := run(t, "serve", "--workers", "17", "--url", "https://x/a.jpg"); err == nil {
		t.Error("serve with 17 workers: expected error")
	}
	if _, _, err := run(t, "serve", "extra"); err == nil {
		t.Error("serve with positional args: expected error")
	}
}
