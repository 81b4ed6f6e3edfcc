package world

import (
	"fmt"
	"strings"
)

// Grid is a rectangular, row-major cell matrix
type Grid struct {
	cells [][]CellType
	cols  int
}

// NewGrid builds a rectangular grid. Short rows are right-padded with Wall.
func NewGrid(rows [][]CellType) *Grid {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	cells := make([][]CellType, len(rows))
	for i, r := range rows {
		cells[i] = make([]CellType, cols)
		copy(cells[i], r)
		for j := len(r); j < cols; j++ {
			cells[i][j] = Wall
		}
	}
	return &Grid{cells: cells, cols: cols}
}

// Rows returns the number of rows
func (g *Grid) Rows() int {
	return len(g.cells)
}

// Cols returns the number of columns
func (g *Grid) Cols() int {
	return g.cols
}

// InBounds reports whether p addresses a cell of the grid
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < len(g.cells) && p.Col >= 0 && p.Col < g.cols
}

// At returns the cell at p. Off-grid positions read as Wall.
func (g *Grid) At(p Position) CellType {
	if !g.InBounds(p) {
		return Wall
	}
	return g.cells[p.Row][p.Col]
}

// Set overwrites the cell at p; off-grid writes are ignored
func (g *Grid) Set(p Position, c CellType) {
	if g.InBounds(p) {
		g.cells[p.Row][p.Col] = c
	}
}

// OnBorder reports whether p lies on the first/last row or column
func (g *Grid) OnBorder(p Position) bool {
	if !g.InBounds(p) {
		return false
	}
	return p.Row == 0 || p.Row == len(g.cells)-1 || p.Col == 0 || p.Col == g.cols-1
}

// Find returns every position holding the given cell type
func (g *Grid) Find(c CellType) []Position {
	var found []Position
	for i, row := range g.cells {
		for j, cell := range row {
			if cell == c {
				found = append(found, Position{Row: i, Col: j})
			}
		}
	}
	return found
}

// Count returns the number of cells of the given type
func (g *Grid) Count(c CellType) int {
	return len(g.Find(c))
}

// Clone returns a deep copy
func (g *Grid) Clone() *Grid {
	cells := make([][]CellType, len(g.cells))
	for i, row := range g.cells {
		cells[i] = append([]CellType(nil), row...)
	}
	return &Grid{cells: cells, cols: g.cols}
}

// Lines renders the grid in map file notation
func (g *Grid) Lines() []string {
	lines := make([]string, len(g.cells))
	for i, row := range g.cells {
		var b strings.Builder
		for _, c := range row {
			b.WriteByte(c.Symbol())
		}
		lines[i] = b.String()
	}
	return lines
}

// ParseCell maps a map file character to a cell type
func ParseCell(r rune) (CellType, bool) {
	switch r {
	case '*', 'X':
		return Wall, true
	case 'E':
		return Entrance, true
	case 'H', '@':
		return Object, true
	case ' ', '.':
		return Open, true
	}
	return "", false
}

// ParseLines builds a grid from map file lines. Empty lines are skipped and
// trailing carriage returns removed. A line of spaces is a row of open cells.
func ParseLines(lines []string) (*Grid, error) {
	var rows [][]CellType
	for i, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		row := make([]CellType, 0, len(line))
		for j, r := range []rune(line) {
			c, ok := ParseCell(r)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected character %q at line %d column %d", ErrInvalidInput, r, i+1, j+1)
			}
			row = append(row, c)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty map", ErrInvalidInput)
	}
	return NewGrid(rows), nil
}
