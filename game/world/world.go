package world

import (
	"fmt"
	"strings"
)

// sensorOffsets holds left, front, right offsets for each orientation.
// North is (-1,-1), (-1,0), (-1,1); each following row is rotated clockwise.
var sensorOffsets = buildSensorOffsets()

func buildSensorOffsets() [4][3]Position {
	var table [4][3]Position
	table[North] = [3]Position{{Row: -1, Col: -1}, {Row: -1, Col: 0}, {Row: -1, Col: 1}}
	for o := East; o <= West; o++ {
		for i, p := range table[o-1] {
			table[o][i] = Position{Row: p.Col, Col: -p.Row}
		}
	}
	return table
}

// SensorOffsets returns the left, front and right offsets for an orientation
func SensorOffsets(o Orientation) [3]Position {
	return sensorOffsets[o%4]
}

// Commander executes agent commands
type Commander interface {
	Execute(cmd Command) error
	State() AgentState
}

// World owns the grid and the ground-truth agent state
type World struct {
	name     string
	grid     *Grid
	initial  *Grid
	entrance Position
	start    AgentState
	agent    AgentState
}

// New validates the grid and places the agent on the entrance
func New(name string, grid *Grid) (*World, error) {
	if grid == nil || grid.Rows() == 0 || grid.Cols() == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidInput)
	}
	entrances := grid.Find(Entrance)
	if len(entrances) != 1 {
		return nil, fmt.Errorf("%w: map must have exactly 1 entrance, found %d", ErrInvalidInput, len(entrances))
	}
	if n := grid.Count(Object); n != 1 {
		return nil, fmt.Errorf("%w: map must have exactly 1 object, found %d", ErrInvalidInput, n)
	}

	entrance := entrances[0]
	start := AgentState{
		Position:    entrance,
		Orientation: InitialOrientation(grid, entrance),
	}
	return &World{
		name:     name,
		grid:     grid.Clone(),
		initial:  grid.Clone(),
		entrance: entrance,
		start:    start,
		agent:    start,
	}, nil
}

// InitialOrientation faces the agent into the grid from its entrance.
// Row borders are checked before column borders, so corners face South or North.
func InitialOrientation(grid *Grid, entrance Position) Orientation {
	switch {
	case entrance.Row == 0:
		return South
	case entrance.Row == grid.Rows()-1:
		return North
	case entrance.Col == 0:
		return East
	default:
		return West
	}
}

// Name returns the map name the world was built from
func (w *World) Name() string {
	return w.name
}

// Rows returns the grid height
func (w *World) Rows() int {
	return w.grid.Rows()
}

// Cols returns the grid width
func (w *World) Cols() int {
	return w.grid.Cols()
}

// Entrance returns the entrance position
func (w *World) Entrance() Position {
	return w.entrance
}

// State returns a copy of the agent state
func (w *World) State() AgentState {
	return w.agent
}

// Snapshot returns a copy of the current full grid
func (w *World) Snapshot() *Grid {
	return w.grid.Clone()
}

// Restore replaces the current grid and agent state, used when loading a saved session
func (w *World) Restore(grid *Grid, agent AgentState) error {
	if grid == nil || grid.Rows() != w.grid.Rows() || grid.Cols() != w.grid.Cols() {
		return fmt.Errorf("%w: restored grid does not match map dimensions", ErrInvalidInput)
	}
	if grid.At(agent.Position) == Wall {
		return fmt.Errorf("%w: agent position %s is not a free cell", ErrInvalidInput, agent.Position)
	}
	w.grid = grid.Clone()
	w.agent = agent
	w.agent.Orientation %= 4
	return nil
}

// Reset restores the initial grid and agent state
func (w *World) Reset() AgentState {
	w.grid = w.initial.Clone()
	w.agent = w.start
	return w.agent
}

// Sense reads the left, front and right cells. Entrance reads as Open.
func (w *World) Sense() Readings {
	offsets := sensorOffsets[w.agent.Orientation]
	read := func(d Position) CellType {
		c := w.grid.At(w.agent.Position.Add(d))
		if c == Entrance {
			return Open
		}
		return c
	}
	return Readings{
		Left:  read(offsets[0]),
		Front: read(offsets[1]),
		Right: read(offsets[2]),
	}
}

// Front returns the position directly ahead of the agent
func (w *World) Front() Position {
	return w.agent.Position.Step(w.agent.Orientation)
}

// Execute applies a single command to the agent
func (w *World) Execute(cmd Command) error {
	switch cmd {
	case Advance:
		target := w.Front()
		if w.grid.At(target) == Wall {
			return fmt.Errorf("%w: cannot advance %s from %s into %s", ErrCollision,
				w.agent.Orientation, w.agent.Position, target)
		}
		w.agent.Position = target

	case Rotate:
		w.agent.Orientation = w.agent.Orientation.Rotate()

	case Pickup:
		target := w.Front()
		if w.grid.At(target) != Object {
			return fmt.Errorf("%w: front cell %s", ErrNoObjectAdjacent, target)
		}
		w.grid.Set(target, Open)
		w.agent.Carrying = true

	case Eject:
		if !w.agent.Carrying {
			return ErrNotCarrying
		}
		if !w.grid.OnBorder(w.agent.Position) {
			return fmt.Errorf("%w: position %s", ErrNotAtExit, w.agent.Position)
		}
		w.agent.Carrying = false

	default:
		return fmt.Errorf("%w: unknown command %q", ErrInvalidInput, cmd.String())
	}
	return nil
}

var agentGlyphs = [...]rune{'^', '>', 'v', '<'}

// Render draws the grid with the agent marked by its heading
func (w *World) Render() string {
	var b strings.Builder
	for i, line := range w.grid.Lines() {
		for j, r := range line {
			if i == w.agent.Position.Row && j == w.agent.Position.Col {
				r = agentGlyphs[w.agent.Orientation]
			}
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
