package pathfind

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// Map is the read-only grid view searched by the planner
type Map interface {
	Rows() int
	Cols() int
	At(p world.Position) world.CellType
}

var (
	ErrEmptyGrid        = fmt.Errorf("%w: empty grid", world.ErrInvalidInput)
	ErrStartOutOfBounds = fmt.Errorf("%w: start out of bounds", world.ErrInvalidInput)
	ErrGoalOutOfBounds  = fmt.Errorf("%w: goal out of bounds", world.ErrInvalidInput)
	ErrStartIsWall      = fmt.Errorf("%w: start is a wall", world.ErrInvalidInput)
	ErrGoalIsWall       = fmt.Errorf("%w: goal is a wall", world.ErrInvalidInput)

	ErrNoPath = errors.New("no path found")
)

// neighbourOrder is North, South, East, West
var neighbourOrder = [...]world.Orientation{world.North, world.South, world.East, world.West}

// Manhattan returns |Δrow| + |Δcol|
func Manhattan(a, b world.Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// node is a search record. Predecessors are referenced by position in the arena.
type node struct {
	pos    world.Position
	g, h   int
	prev   world.Position
	root   bool
	closed bool
	seq    int
	index  int
}

func (n *node) f() int {
	return n.g + n.h
}

// openSet is a min-heap on f. Equal f falls back to insertion order.
type openSet []*node

func (q openSet) Len() int { return len(q) }
func (q openSet) Less(i, j int) bool {
	if fi, fj := q[i].f(), q[j].f(); fi != fj {
		return fi < fj
	}
	return q[i].seq < q[j].seq
}
func (q openSet) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *openSet) Pop() any {
	old := *q
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*q = old[:last]
	return n
}

// Planner runs A* searches and reuses its node arena between calls.
// A Planner is not safe for concurrent use.
type Planner struct {
	arena    map[world.Position]*node
	open     openSet
	seq      int
	expanded int
}

// NewPlanner creates an empty planner
func NewPlanner() *Planner {
	return &Planner{arena: make(map[world.Position]*node)}
}

// Expanded returns the number of nodes closed by the last search
func (p *Planner) Expanded() int {
	return p.expanded
}

func (p *Planner) reset() {
	clear(p.arena)
	p.open = p.open[:0]
	p.seq = 0
	p.expanded = 0
}

func inBounds(m Map, pos world.Position) bool {
	return pos.Row >= 0 && pos.Row < m.Rows() && pos.Col >= 0 && pos.Col < m.Cols()
}

func checkInput(m Map, start, goal world.Position) error {
	if m == nil || m.Rows() == 0 || m.Cols() == 0 {
		return ErrEmptyGrid
	}
	if !inBounds(m, start) {
		return fmt.Errorf("%w: %s", ErrStartOutOfBounds, start)
	}
	if !inBounds(m, goal) {
		return fmt.Errorf("%w: %s", ErrGoalOutOfBounds, goal)
	}
	if m.At(start) == world.Wall {
		return fmt.Errorf("%w: %s", ErrStartIsWall, start)
	}
	if m.At(goal) == world.Wall {
		return fmt.Errorf("%w: %s", ErrGoalIsWall, goal)
	}
	return nil
}

// FindPath returns the shortest 4-connected path from start to goal, both included
func (p *Planner) FindPath(m Map, start, goal world.Position) ([]world.Position, error) {
	if err := checkInput(m, start, goal); err != nil {
		return nil, err
	}
	if start == goal {
		return []world.Position{start}, nil
	}

	p.reset()

	p.push(&node{pos: start, h: Manhattan(start, goal), root: true})

	for p.open.Len() > 0 {
		current := heap.Pop(&p.open).(*node)
		current.closed = true
		p.expanded++

		if current.pos == goal {
			return p.reconstruct(current), nil
		}

		for _, dir := range neighbourOrder {
			next := current.pos.Step(dir)
			if !inBounds(m, next) || m.At(next) == world.Wall {
				continue
			}
			g := current.g + 1

			existing, seen := p.arena[next]
			switch {
			case !seen:
				p.push(&node{pos: next, g: g, h: Manhattan(next, goal), prev: current.pos})
			case existing.closed:
				// closed nodes are never reopened
			case g < existing.g:
				existing.g = g
				existing.prev = current.pos
				heap.Fix(&p.open, existing.index)
			}
		}
	}
	return nil, fmt.Errorf("%w: from %s to %s", ErrNoPath, start, goal)
}

func (p *Planner) push(n *node) {
	n.seq = p.seq
	p.seq++
	p.arena[n.pos] = n
	heap.Push(&p.open, n)
}

func (p *Planner) reconstruct(end *node) []world.Position {
	var path []world.Position
	for n := end; ; n = p.arena[n.prev] {
		path = append(path, n.pos)
		if n.root {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FindPath runs a single search with a fresh planner
func FindPath(m Map, start, goal world.Position) ([]world.Position, error) {
	return NewPlanner().FindPath(m, start, goal)
}
