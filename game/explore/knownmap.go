package explore

import (
	"strings"

	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// KnownMap is the partial grid rebuilt from sensor readings.
// Unknown cells read as Wall so the map can be searched directly.
type KnownMap struct {
	cells map[world.Position]world.CellType
	rows  int
	cols  int
}

// NewKnownMap creates an empty map
func NewKnownMap() *KnownMap {
	return &KnownMap{cells: make(map[world.Position]world.CellType)}
}

// Record stores an observation. An unset cell takes any value; a cell seen as
// Open may be upgraded to Wall, Entrance or Object; nothing else is overwritten.
func (k *KnownMap) Record(p world.Position, c world.CellType) bool {
	prev, ok := k.cells[p]
	if ok && (prev != world.Open || c == world.Open) {
		return false
	}
	k.cells[p] = c
	if p.Row >= 0 && p.Row+1 > k.rows {
		k.rows = p.Row + 1
	}
	if p.Col >= 0 && p.Col+1 > k.cols {
		k.cols = p.Col + 1
	}
	return true
}

// Lookup returns the observed content of p and whether it has been observed
func (k *KnownMap) Lookup(p world.Position) (world.CellType, bool) {
	c, ok := k.cells[p]
	return c, ok
}

// Len returns the number of observed cells
func (k *KnownMap) Len() int {
	return len(k.cells)
}

// Rows returns the height of the observed area
func (k *KnownMap) Rows() int {
	return k.rows
}

// Cols returns the width of the observed area
func (k *KnownMap) Cols() int {
	return k.cols
}

// At returns the observed content, or Wall for unknown cells
func (k *KnownMap) At(p world.Position) world.CellType {
	if c, ok := k.cells[p]; ok {
		return c
	}
	return world.Wall
}

// Find returns the first observed position holding c
func (k *KnownMap) Find(c world.CellType) (world.Position, bool) {
	for r := 0; r < k.rows; r++ {
		for col := 0; col < k.cols; col++ {
			p := world.Position{Row: r, Col: col}
			if v, ok := k.cells[p]; ok && v == c {
				return p, true
			}
		}
	}
	return world.Position{}, false
}

// Render draws the observed area; unknown cells are '?'
func (k *KnownMap) Render() string {
	var b strings.Builder
	for r := 0; r < k.rows; r++ {
		for c := 0; c < k.cols; c++ {
			if v, ok := k.cells[world.Position{Row: r, Col: c}]; ok {
				b.WriteByte(v.Symbol())
			} else {
				b.WriteByte('?')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
