package pipeline

import (
	"context"
	"errors"
	"fmt"
	stdimage "image"
	"slices"
	"strings"
	"testing"

	"github.com/jmylchreest/colordots/internal/colour"
	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/image"
	"github.com/jmylchreest/colordots/internal/search"
)

func entry(index int, hex string) Entry {
	rgb, _ := colour.ParseHex(hex)
	sample := colour.NewSample(rgb)
	return Entry{Index: index, SourceURL: fmt.Sprintf("u%d", index), Status: image.StatusOK, Color: &sample}
}

func TestSessionResort(t *testing.T) {
	s := NewSession("q", []Entry{entry(0, "#ff0000"), entry(1, "#0000ff"), entry(2, "#00ff00")}, grid.ModeInsertion, 1)
	if got := s.Grid.Hexes(); !slices.Equal(got, []string{"#ff0000", "#0000ff", "#00ff00"}) {
		t.Fatalf("insertion Hexes() = %v", got)
	}

	s.Resort(grid.ModeColor, 1)
	if got := s.Grid.Hexes(); !slices.Equal(got, []string{"#0000ff", "#00ff00", "#ff0000"}) {
		t.Errorf("color Hexes() = %v", got)
	}
	if s.Mode != grid.ModeColor {
		t.Errorf("Mode = %s, want color", s.Mode)
	}

	s.Resort(grid.ModeHue, 1)
	if got := s.Grid.Hexes(); !slices.Equal(got, []string{"#ff0000", "#00ff00", "#0000ff"}) {
		t.Errorf("hue Hexes() = %v", got)
	}
}

func TestSessionReshuffle(t *testing.T) {
	s := NewSession("q", []Entry{entry(0, "#ff0000"), entry(1, "#0000ff")}, grid.ModeInsertion, 1)
	first := slices.Clone(s.Grid.RevealOrder)

	s.Reshuffle(2)
	if slices.Equal(first, s.Grid.RevealOrder) {
		t.Error("Reshuffle() with a new seed kept the reveal order")
	}
	if got := s.Grid.Hexes(); !slices.Equal(got, []string{"#ff0000", "#0000ff"}) {
		t.Errorf("Reshuffle() moved slot data: %v", got)
	}

	s.Reshuffle(1)
	if !slices.Equal(first, s.Grid.RevealOrder) {
		t.Error("Reshuffle() with the original seed did not reproduce the order")
	}
}

func TestSessionResample(t *testing.T) {
	loader := &fakeLoader{images: map[string]stdimage.Image{}}
	var urls []string
	for i := 0; i < 5; i++ {
		u := fmt.Sprintf("https://x/%d.png", i)
		loader.images[u] = gradient(120, 120)
		urls = append(urls, u)
	}
	urls = append(urls, "https://x/missing.png")
	backend := search.NewListBackend(urls)

	p := newTestPipeline(t, loader, func(o *Options) { o.KeepSources = true })
	s, err := p.Search(context.Background(), backend, Request{Query: "q", Mode: grid.ModeColor})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	before := fmt.Sprint(s.Grid.Hexes())

	if err := s.Resample(99); err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	if fmt.Sprint(s.Grid.Hexes()) == before {
		t.Error("Resample() did not change any colour")
	}
	if s.Entries[5].Color.Hex != DefaultPlaceholderColor {
		t.Errorf("placeholder colour changed to %s", s.Entries[5].Color.Hex)
	}

	plain := newTestPipeline(t, loader, nil)
	s, _ = plain.Search(context.Background(), backend, Request{Query: "q"})
	if err := s.Resample(99); !errors.Is(err, ErrNoSources) {
		t.Errorf("Resample() without sources error = %v, want ErrNoSources", err)
	}
}

func TestSessionSummary(t *testing.T) {
	failed := Entry{Index: 1, SourceURL: "u1", Status: image.StatusFetchFailed, Err: errors.New("x")}
	s := NewSession("sunset", []Entry{entry(0, "#ff8800"), failed}, grid.ModeHue, 3)

	if s.FailedCount() != 1 {
		t.Errorf("FailedCount() = %d, want 1", s.FailedCount())
	}
	summary := s.Summary()
	for _, want := range []string{`"sunset"`, "2 images", "1 failed", "hue"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() = %q, missing %q", summary, want)
		}
	}
}

func TestEntryItem(t *testing.T) {
	e := Entry{Index: 0, SourceURL: "u", Status: image.StatusDecodeFailed}
	if !e.item().Placeholder {
		t.Error("failed entry should map to a placeholder item")
	}
}
