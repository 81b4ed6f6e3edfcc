// Package world provides the ground-truth grid world for the rescue navigator.
//
// The world package owns:
//   - The cell grid (Open, Wall, Entrance, Object), padded to a rectangle
//   - The agent state: position, orientation and the carrying flag
//   - The three-beam proximity sensor (left, front, right)
//   - Command execution for Advance, Rotate, Pickup and Eject
//
// Usage:
//
//	w, err := world.New("maze", grid)
//	if err != nil {
//		return err
//	}
//
//	readings := w.Sense()
//	if readings.Front == world.Object {
//		err = w.Execute(world.Pickup)
//	}
//
// The agent only leaves its cell through Execute; a blocked Advance returns
// ErrCollision and leaves the state untouched. Off-grid cells read as Wall and
// the Entrance reads as Open. Eject is accepted on any border cell.
package world
