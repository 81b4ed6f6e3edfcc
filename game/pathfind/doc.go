// Package pathfind implements A* search over a fully known grid.
//
// FindPath uses the Manhattan heuristic, expands neighbours North, South,
// East, West and keeps the open set in a binary heap keyed on f. Nodes live in
// an arena indexed by position and record their predecessor's position; a
// Planner clears and reuses the arena between searches.
//
// When several shortest paths exist the one returned depends on heap
// insertion order. Callers should rely on the path length, not the exact route.
//
// Invalid coordinates wrap world.ErrInvalidInput with a distinct sentinel
// (ErrStartOutOfBounds, ErrGoalIsWall, ...). An unreachable goal returns ErrNoPath.
package pathfind
