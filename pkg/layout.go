package pkg

import (
	"image"

	"github.com/kubesail/desk-controller/config"
)

// Metrics are the style sizes derived from the screen and cell size.
type Metrics struct {
	Spacing  int
	Margin   int
	FontSize int
	Padding  int
	Radius   int
	IconSize int
}

// Geometry places a rows x columns grid on a width x height screen.
type Geometry struct {
	Width, Height int
	Rows, Columns int
	CellW, CellH  int
	Metrics
}

// NewGeometry sizes everything proportionally to the screen. Touch
// screens get larger fonts, padding and gaps so fingers can hit them.
func NewGeometry(width, height int, layout config.Layout, touch bool) Geometry {
	g := Geometry{Width: width, Height: height, Rows: max(layout.Rows, 1), Columns: max(layout.Columns, 1)}
	base := min(width, height)

	g.Spacing = max(2, base/100, layout.ButtonSpacing)
	if touch {
		g.Spacing = max(g.Spacing, 15)
	}
	g.Margin = max(5, base*2/100)

	g.CellW = max(1, (width-2*g.Margin-(g.Columns-1)*g.Spacing)/g.Columns)
	g.CellH = max(1, (height-2*g.Margin-(g.Rows-1)*g.Spacing)/g.Rows)
	cell := min(g.CellW, g.CellH)

	g.FontSize = max(8, cell/10)
	g.Padding = max(3, cell*5/100)
	g.Radius = g.Padding
	if touch {
		g.FontSize = max(g.FontSize, 14)
		g.Padding = max(g.Padding, 10)
	}
	g.IconSize = max(16, cell*30/100)
	return g
}

// Cell returns the rectangle of the cell at row, column.
func (g Geometry) Cell(row, column int) image.Rectangle {
	x := g.Margin + column*(g.CellW+g.Spacing)
	y := g.Margin + row*(g.CellH+g.Spacing)
	return image.Rect(x, y, x+g.CellW, y+g.CellH)
}

// CellAt returns the cell under x, y. Gaps and margins hit nothing.
func (g Geometry) CellAt(x, y int) (row, column int, ok bool) {
	p := image.Pt(x, y)
	column = (x - g.Margin) / (g.CellW + g.Spacing)
	row = (y - g.Margin) / (g.CellH + g.Spacing)
	if x < g.Margin || y < g.Margin || row >= g.Rows || column >= g.Columns {
		return 0, 0, false
	}
	if !p.In(g.Cell(row, column)) {
		return 0, 0, false
	}
	return row, column, true
}

// HitTest returns the index of the button drawn under x, y. Buttons that
// share a cell resolve to the first one listed.
func (g Geometry) HitTest(cfg *config.Config, x, y int) (int, bool) {
	row, column, ok := g.CellAt(x, y)
	if !ok {
		return -1, false
	}
	for i, b := range cfg.Buttons {
		if b.Row() == row && b.Column() == column {
			return i, true
		}
	}
	return -1, false
}
