package imagecache

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPutGet(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "images"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	url := "https://img.example.com/a.jpg"
	if _, ok := c.Get(url); ok {
		t.Fatal("Get() hit on empty cache")
	}

	data := []byte{0xff, 0xd8, 0xff, 0xe0}
	if err := c.Put(url, data); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := c.Get(url)
	if !ok || !bytes.Equal(got, data) {
		t.Errorf("Get() = %v, %v; want %v, true", got, ok, data)
	}

	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 1 {
		t.Errorf("cache dir has %d files, want 1 (temporary files left behind?)", len(entries))
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		url     string
		wantExt string
	}{
		{"https://x/a.jpg", ".jpg"},
		{"https://x/a.PNG?w=200", ".png"},
		{"https://x/a.webp#frag", ".webp"},
		{"https://x/image", ".img"},
		{"https://x/a.verylongext", ".img"},
	}

	for _, tt := range tests {
		got := filename(tt.url)
		if !strings.HasSuffix(got, tt.wantExt) {
			t.Errorf("filename(%q) = %q, want suffix %q", tt.url, got, tt.wantExt)
		}
		if len(got) != 32+len(tt.wantExt) {
			t.Errorf("filename(%q) = %q, unexpected length", tt.url, got)
		}
		if filename(tt.url) != got {
			t.Errorf("filename(%q) is not deterministic", tt.url)
		}
	}
	if filename("https://x/a.jpg") == filename("https://x/b.jpg") {
		t.Error("different URLs share a cache file")
	}
}
