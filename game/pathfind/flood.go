package pathfind

import "github.com/wricardo/mcp-training/rescuebot/game/world"

// Reachable returns every non-wall cell 4-connected to from, including from itself.
// A wall or off-grid origin yields an empty set.
func Reachable(m Map, from world.Position) map[world.Position]bool {
	seen := make(map[world.Position]bool)
	if m == nil || !inBounds(m, from) || m.At(from) == world.Wall {
		return seen
	}
	queue := []world.Position{from}
	seen[from] = true
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dir := range neighbourOrder {
			next := current.Step(dir)
			if seen[next] || !inBounds(m, next) || m.At(next) == world.Wall {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}

// Distances returns the breadth-first step count from the origin to every reachable cell
func Distances(m Map, from world.Position) map[world.Position]int {
	dist := make(map[world.Position]int)
	if m == nil || !inBounds(m, from) || m.At(from) == world.Wall {
		return dist
	}
	queue := []world.Position{from}
	dist[from] = 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dir := range neighbourOrder {
			next := current.Step(dir)
			if _, ok := dist[next]; ok || !inBounds(m, next) || m.At(next) == world.Wall {
				continue
			}
			dist[next] = dist[current] + 1
			queue = append(queue, next)
		}
	}
	return dist
}
