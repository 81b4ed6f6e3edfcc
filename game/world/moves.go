package world

import "fmt"

// DirectionTo returns the orientation that leads from one cell to an adjacent one
func DirectionTo(from, to Position) (Orientation, bool) {
	for o := North; o <= West; o++ {
		if from.Step(o) == to {
			return o, true
		}
	}
	return North, false
}

// RotationsBetween counts the clockwise turns needed to go from one heading to another
func RotationsBetween(from, to Orientation) int {
	return int((to - from + 4) % 4)
}

// Face rotates the agent clockwise until it faces the given orientation.
// It returns the number of rotations issued.
func Face(c Commander, o Orientation) (int, error) {
	turns := RotationsBetween(c.State().Orientation, o)
	for i := 0; i < turns; i++ {
		if err := c.Execute(Rotate); err != nil {
			return i, err
		}
	}
	return turns, nil
}

// MoveTo turns toward an adjacent cell and advances into it
func MoveTo(c Commander, target Position) error {
	from := c.State().Position
	dir, ok := DirectionTo(from, target)
	if !ok {
		return fmt.Errorf("%w: %s is not adjacent to %s", ErrInvalidInput, target, from)
	}
	if _, err := Face(c, dir); err != nil {
		return err
	}
	return c.Execute(Advance)
}

// FollowPath replays a path whose first element is the agent's current cell
func FollowPath(c Commander, path []Position) error {
	if len(path) == 0 {
		return nil
	}
	if at := c.State().Position; at != path[0] {
		return fmt.Errorf("%w: path starts at %s but agent is at %s", ErrInvalidInput, path[0], at)
	}
	for _, step := range path[1:] {
		if err := MoveTo(c, step); err != nil {
			return err
		}
	}
	return nil
}
