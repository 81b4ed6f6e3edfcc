package world

import (
	"errors"
	"fmt"
)

// CellType represents the content of a single grid cell
type CellType string

const (
	Open     CellType = "open"
	Wall     CellType = "wall"
	Entrance CellType = "entrance"
	Object   CellType = "object"
)

// Symbol returns the map character used to draw the cell
func (c CellType) Symbol() byte {
	switch c {
	case Wall:
		return '*'
	case Entrance:
		return 'E'
	case Object:
		return '@'
	default:
		return ' '
	}
}

// Orientation is the direction the agent is facing, ordered clockwise
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

var orientationNames = [...]string{"north", "east", "south", "west"}

// String returns the lowercase orientation name
func (o Orientation) String() string {
	if o < North || o > West {
		return fmt.Sprintf("orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// Rotate returns the orientation 90 degrees clockwise
func (o Orientation) Rotate() Orientation {
	return (o + 1) % 4
}

// Delta returns the row/col step for one advance in this orientation
func (o Orientation) Delta() Position {
	switch o {
	case North:
		return Position{Row: -1}
	case East:
		return Position{Col: 1}
	case South:
		return Position{Row: 1}
	default:
		return Position{Col: -1}
	}
}

// MarshalText encodes the orientation by name, so JSON carries "south" rather than 2
func (o Orientation) MarshalText() ([]byte, error) {
	if o < North || o > West {
		return nil, fmt.Errorf("%w: orientation %d", ErrInvalidInput, int(o))
	}
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(text []byte) error {
	v, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ParseOrientation converts a name produced by String back to an Orientation
func ParseOrientation(name string) (Orientation, error) {
	for i, n := range orientationNames {
		if n == name {
			return Orientation(i), nil
		}
	}
	return North, fmt.Errorf("%w: unknown orientation %q", ErrInvalidInput, name)
}

// Position is a 0-indexed (row, col) grid coordinate
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns the component-wise sum of two positions
func (p Position) Add(d Position) Position {
	return Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

// Step returns the neighbouring position in the given orientation
func (p Position) Step(o Orientation) Position {
	return p.Add(o.Delta())
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Readings holds the three proximity sensor values
type Readings struct {
	Left  CellType `json:"left"`
	Front CellType `json:"front"`
	Right CellType `json:"right"`
}

// Values returns readings in left, front, right order
func (r Readings) Values() []CellType {
	return []CellType{r.Left, r.Front, r.Right}
}

// Command is a single agent instruction
type Command byte

const (
	Advance Command = 'A'
	Rotate  Command = 'G'
	Pickup  Command = 'P'
	Eject   Command = 'E'
)

func (c Command) String() string {
	return string(rune(c))
}

// Name returns a human readable command name
func (c Command) Name() string {
	switch c {
	case Advance:
		return "advance"
	case Rotate:
		return "rotate"
	case Pickup:
		return "pickup"
	case Eject:
		return "eject"
	default:
		return "unknown"
	}
}

// ParseCommand converts a command letter into a Command
func ParseCommand(r rune) (Command, error) {
	switch c := Command(r); c {
	case Advance, Rotate, Pickup, Eject:
		return c, nil
	}
	if r >= 'a' && r <= 'z' {
		return ParseCommand(r - 'a' + 'A')
	}
	return 0, fmt.Errorf("%w: unknown command %q", ErrInvalidInput, r)
}

// ParseCommands converts a command string such as "AGAP". Whitespace is ignored.
func ParseCommands(s string) ([]Command, error) {
	cmds := make([]Command, 0, len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ',' {
			continue
		}
		c, err := ParseCommand(r)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

// AgentState is the ground-truth state of the agent
type AgentState struct {
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
	Carrying    bool        `json:"carrying"`
}

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrCollision        = errors.New("collision")
	ErrNoObjectAdjacent = errors.New("no object in front of agent")
	ErrNotCarrying      = errors.New("agent is not carrying the object")
	ErrNotAtExit        = errors.New("agent is not on the grid border")
)
