package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/opd-ai/go-orrery/pkg/simulation"
)

// CellAspect is the height of a terminal cell relative to its width.
const CellAspect = 2.0

const clearScreen = "\033[H\033[2J"

// TerminalRenderer provides a simple ASCII rendering for terminals. Trail
// points are drawn as '.', bodies by the first letter of their name and
// reference bodies as '*'.
type TerminalRenderer struct {
	out      io.Writer
	viewport *Viewport
	buffer   [][]rune
	legend   []string
	status   string

	// ShowDistances adds each body's distance to the legend.
	ShowDistances bool
	// ClearScreen emits an ANSI clear before each frame.
	ClearScreen bool
}

// NewTerminalRenderer creates a renderer of cols x rows cells. The viewport
// scale is in cells per meter horizontally.
func NewTerminalRenderer(out io.Writer, cols, rows int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, rows)
	for i := range buffer {
		buffer[i] = make([]rune, cols)
	}

	return &TerminalRenderer{
		out:           out,
		viewport:      NewViewport(cols, rows, scale),
		buffer:        buffer,
		ShowDistances: true,
	}
}

// Viewport returns the viewport used for projection
func (r *TerminalRenderer) Viewport() *Viewport {
	return r.viewport
}

// worldToCell converts a world position into a cell, compressing rows to
// account for tall cells.
func (r *TerminalRenderer) worldToCell(x, y float64) (int, int, bool) {
	cy := float64(r.viewport.Height) / 2
	col := int(math.Floor(x))
	row := int(math.Floor(cy + (y-cy)/CellAspect))
	ok := col >= 0 && col < r.viewport.Width && row >= 0 && row < r.viewport.Height
	return col, row, ok
}

func (r *TerminalRenderer) plot(body simulation.BodyState, glyph rune, trail bool) {
	if trail {
		for _, p := range body.Trajectory {
			x, y := r.viewport.WorldToScreen(p)
			if col, row, ok := r.worldToCell(x, y); ok && r.buffer[row][col] == ' ' {
				r.buffer[row][col] = '.'
			}
		}
	}
	x, y := r.viewport.WorldToScreen(body.Position)
	if col, row, ok := r.worldToCell(x, y); ok {
		r.buffer[row][col] = glyph
	}
}

// Clear implements Renderer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
	r.legend = r.legend[:0]
	r.status = ""
}

// RenderBody implements Renderer
func (r *TerminalRenderer) RenderBody(body simulation.BodyState, look Appearance) {
	glyph := Glyph(body)
	r.plot(body, glyph, true)

	line := fmt.Sprintf("%c %s", glyph, body.Name)
	if r.ShowDistances && !body.IsReference() {
		line += "  " + FormatDistance(body.DistanceToReference)
	}
	r.legend = append(r.legend, line)
}

// RenderStatus implements Renderer
func (r *TerminalRenderer) RenderStatus(status Status) {
	r.status = FormatStatus(status)
}

// Present implements Renderer
func (r *TerminalRenderer) Present() error {
	w := bufio.NewWriter(r.out)
	if r.ClearScreen {
		w.WriteString(clearScreen)
	}

	border := "+" + strings.Repeat("-", r.viewport.Width) + "+\n"
	w.WriteString(border)
	for y := range r.buffer {
		w.WriteByte('|')
		w.WriteString(string(r.buffer[y]))
		w.WriteString("|\n")
	}
	w.WriteString(border)

	if r.status != "" {
		fmt.Fprintln(w, r.status)
	}
	for _, line := range r.legend {
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}

// Glyph returns the character used for a body
func Glyph(body simulation.BodyState) rune {
	if body.IsReference() {
		return '*'
	}
	for _, c := range body.Name {
		return unicode.ToUpper(c)
	}
	return 'o'
}

// FitScale returns the horizontal cells-per-meter scale that fits a disc of
// radius extent meters inside a cols x rows terminal.
func FitScale(cols, rows int, extent float64) float64 {
	if !(extent > 0) {
		return 1
	}
	half := math.Min(float64(cols)/2, float64(rows)*CellAspect/2)
	return half / extent
}

// Extent returns the largest distance of any body from the origin
func Extent(bodies []simulation.BodyState) float64 {
	var extent float64
	for _, b := range bodies {
		extent = math.Max(extent, b.Position.Length())
	}
	return extent
}
