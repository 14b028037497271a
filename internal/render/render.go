// Package render turns a composed session into output: a JSON payload for
// clients, a terminal grid preview or plain colour lists.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jmylchreest/colordots/internal/colour"
	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/pipeline"
)

// Slot is the client view of one grid slot. Image is a JPEG data URI and both
// Image and Color are empty for empty slots.
type Slot struct {
	Index       int    `json:"index"`
	Image       string `json:"image"`
	Color       string `json:"color"`
	Source      string `json:"source,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Payload is the client view of a session.
type Payload struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Mode        string    `json:"mode"`
	Seed        int64     `json:"seed"`
	Count       int       `json:"count"`
	Failed      int       `json:"failed"`
	Slots       []Slot    `json:"slots"`
	RevealOrder []int     `json:"reveal_order"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewPayload builds the payload for s. Slots always has grid.Size entries.
func NewPayload(s *pipeline.Session) Payload {
	p := Payload{
		ID:          s.ID,
		Query:       s.Query,
		Mode:        string(s.Mode),
		Seed:        s.Seed,
		Count:       s.Grid.Count,
		Failed:      s.FailedCount(),
		Slots:       make([]Slot, 0, grid.Size),
		RevealOrder: s.Grid.RevealOrder,
		UpdatedAt:   s.UpdatedAt,
	}
	for _, gs := range s.Grid.Slots {
		slot := Slot{Index: gs.Index}
		if item := gs.Item; item != nil {
			slot.Source = item.SourceURL
			slot.Placeholder = item.Placeholder
			if item.Thumbnail != nil {
				slot.Image = item.Thumbnail.DataURI()
			}
			if item.Color != nil {
				slot.Color = item.Color.Hex
			}
		}
		p.Slots = append(p.Slots, slot)
	}
	return p
}

// JSON returns the indented payload for s, newline terminated.
func JSON(s *pipeline.Session) (string, error) {
	data, err := json.MarshalIndent(NewPayload(s), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to convert to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// PreviewOptions configures Preview.
type PreviewOptions struct {
	CellWidth int  // characters per slot, 0 picks a default
	Labels    bool // print hex codes inside the blocks
	Color     bool // emit ANSI colour; false prints a plain hex grid
}

// Preview draws the grid as grid.Columns rows of coloured blocks.
func Preview(g *grid.Grid, opts PreviewOptions) string {
	width := opts.CellWidth
	if width <= 0 {
		width = 6
		if opts.Labels || !opts.Color {
			width = 8
		}
	}

	var b strings.Builder
	for i, slot := range g.Slots {
		b.WriteString(cell(slot, width, opts))
		if (i+1)%grid.Columns == 0 {
			b.WriteString("\n")
		} else if !opts.Color {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func cell(slot grid.Slot, width int, opts PreviewOptions) string {
	if slot.Empty() || slot.Item.Color == nil {
		if !opts.Color {
			return fmt.Sprintf("%-*s", width, "·")
		}
		return colour.EmptyPreview(width)
	}
	sample := slot.Item.Color
	switch {
	case !opts.Color:
		return fmt.Sprintf("%-*s", width, sample.Hex)
	case opts.Labels:
		return colour.ColourPreviewWithText(sample.RGB, sample.Hex[1:], width)
	default:
		return colour.ColourPreview(sample.RGB, width)
	}
}

// Hex lists slot colours one per line in slot order, optionally with a
// colour swatch.
func Hex(g *grid.Grid, showPreview bool) string {
	var b strings.Builder
	for _, slot := range g.Slots {
		if slot.Empty() || slot.Item.Color == nil {
			continue
		}
		if showPreview {
			b.WriteString(colour.ColourPreview(slot.Item.Color.RGB, 4))
			b.WriteString("  ")
		}
		b.WriteString(slot.Item.Color.Hex)
		b.WriteString("\n")
	}
	return b.String()
}

// Formats lists the names accepted by Format.
func Formats() []string {
	return []string{"preview", "json", "hex"}
}

// Format renders s in the named format.
func Format(s *pipeline.Session, format string, opts PreviewOptions) (string, error) {
	switch format {
	case "preview", "":
		return Preview(&s.Grid, opts), nil
	case "json":
		return JSON(s)
	case "hex":
		return Hex(&s.Grid, opts.Color), nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats(), ", "))
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}

// CellWidthFor picks a slot width that fits ten slots across the terminal
// behind w, within [2, 8]. Non-terminals get 0.
func CellWidthFor(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	cols, _, err := term.GetSize(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
	if err != nil || cols <= 0 {
		return 0
	}
	return max(2, min(8, cols/grid.Columns))
}
