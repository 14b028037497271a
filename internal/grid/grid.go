// Package grid arranges processed images into the fixed 10x10 slot layout.
package grid

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/jmylchreest/colordots/internal/colour"
	"github.com/jmylchreest/colordots/internal/image"
)

const (
	// Size is the number of slots in every grid.
	Size = 100

	// Columns is the number of slots per rendered row.
	Columns = 10
)

// SortMode controls how items are mapped to slot indices.
type SortMode string

const (
	// ModeInsertion keeps fetch order and shuffles only the reveal order.
	ModeInsertion SortMode = "insertion"
	// ModeColor orders items by hex colour code.
	ModeColor SortMode = "color"
	// ModeHue orders chromatic items by hue, then greys by lightness.
	ModeHue SortMode = "hue"
)

// ValidSortModes returns the canonical sort mode names.
func ValidSortModes() []SortMode {
	return []SortMode{ModeInsertion, ModeColor, ModeHue}
}

// ParseSortMode accepts the canonical names plus a few common aliases.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insertion", "random", "":
		return ModeInsertion, nil
	case "color", "colour", "color-code", "colour-code":
		return ModeColor, nil
	case "hue":
		return ModeHue, nil
	default:
		return "", fmt.Errorf("invalid sort mode: %s (valid: insertion, color, hue)", s)
	}
}

// Item is one processed image ready for placement.
type Item struct {
	SourceURL   string
	Thumbnail   *image.Thumbnail
	Color       *colour.Sample
	Placeholder bool // true when the image failed and a placeholder stands in
}

// Slot is one position in the grid. A slot with a nil Item is empty.
type Slot struct {
	Index int
	Item  *Item
}

// Empty reports whether the slot has no content.
func (s Slot) Empty() bool {
	return s.Item == nil
}

// Grid is a composed layout of exactly Size slots.
type Grid struct {
	Mode  SortMode
	Slots [Size]Slot

	// RevealOrder lists slot indices in the order a renderer should reveal
	// them. It is a permutation of 0..Size-1.
	RevealOrder []int

	// Count is the number of non-empty slots.
	Count int
}

// Hexes returns the colours of the non-empty slots in slot order.
func (g *Grid) Hexes() []string {
	hexes := make([]string, 0, g.Count)
	for _, slot := range g.Slots {
		if slot.Item != nil && slot.Item.Color != nil {
			hexes = append(hexes, slot.Item.Color.Hex)
		}
	}
	return hexes
}

// Compose places items into a Grid. Items beyond Size are dropped and
// trailing slots stay empty. rng drives the insertion-mode reveal shuffle; a
// nil rng uses a time-seeded source.
func Compose(items []Item, mode SortMode, rng *rand.Rand) Grid {
	if len(items) > Size {
		items = items[:Size]
	}

	ordered := slices.Clone(items)
	switch mode {
	case ModeColor:
		sortByColorCode(ordered)
	case ModeHue:
		sortByHue(ordered)
	default:
		mode = ModeInsertion
	}

	g := Grid{Mode: mode, Count: len(ordered)}
	for i := range g.Slots {
		g.Slots[i].Index = i
		if i < len(ordered) {
			item := ordered[i]
			g.Slots[i].Item = &item
		}
	}

	if mode == ModeInsertion {
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- presentation only
		}
		g.RevealOrder = rng.Perm(Size)
	} else {
		g.RevealOrder = make([]int, Size)
		for i := range g.RevealOrder {
			g.RevealOrder[i] = i
		}
	}

	return g
}

// sortByColorCode orders items by ascending hex string; items without a
// colour go last. Ties keep their original order.
func sortByColorCode(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := compareMissing(a.Color, b.Color); c != 0 || a.Color == nil {
			return c
		}
		return strings.Compare(a.Color.Hex, b.Color.Hex)
	})
}

// hueKey caches the HSL values an item is sorted by.
type hueKey struct {
	missing    bool
	achromatic bool
	h, l       float64
}

func newHueKey(c *colour.Sample) hueKey {
	if c == nil {
		return hueKey{missing: true}
	}
	h, s, l := c.RGB.HSL()
	return hueKey{achromatic: colour.IsAchromatic(s), h: h, l: l}
}

// sortByHue puts chromatic items first by ascending hue, then achromatic
// items by ascending lightness, then items without a colour.
func sortByHue(items []Item) {
	type keyed struct {
		item Item
		key  hueKey
	}
	tmp := make([]keyed, len(items))
	for i, item := range items {
		tmp[i] = keyed{item: item, key: newHueKey(item.Color)}
	}

	slices.SortStableFunc(tmp, func(a, b keyed) int {
		ka, kb := a.key, b.key
		if ka.missing != kb.missing {
			if ka.missing {
				return 1
			}
			return -1
		}
		if ka.missing {
			return 0
		}
		if ka.achromatic != kb.achromatic {
			if ka.achromatic {
				return 1
			}
			return -1
		}
		if ka.achromatic {
			return cmp.Compare(ka.l, kb.l)
		}
		return cmp.Compare(ka.h, kb.h)
	})

	for i := range tmp {
		items[i] = tmp[i].item
	}
}

func compareMissing(a, b *colour.Sample) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return 0
	}
}
