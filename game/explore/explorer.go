package explore

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rescuebot/game/pathfind"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// DefaultMaxIterations bounds an exploration run
const DefaultMaxIterations = 500

// ErrInvariant is returned when the agent is not where the stack says it is
var ErrInvariant = errors.New("exploration invariant violated")

// Agent is the sensing and acting surface the explorer drives
type Agent interface {
	Sense() world.Readings
	Execute(cmd world.Command) error
	State() world.AgentState
}

// ScanMode selects how neighbours are mapped at each cell
type ScanMode string

const (
	// ScanFull rotates through all four headings at every new cell
	ScanFull ScanMode = "full"
	// ScanLazy only turns toward neighbours that are still unknown
	ScanLazy ScanMode = "lazy"
)

// ParseScanMode validates a scan mode name; empty selects ScanFull
func ParseScanMode(s string) (ScanMode, error) {
	switch ScanMode(s) {
	case "", ScanFull:
		return ScanFull, nil
	case ScanLazy:
		return ScanLazy, nil
	}
	return "", fmt.Errorf("%w: unknown scan mode %q", world.ErrInvalidInput, s)
}

// Purpose tags why a command was issued
type Purpose string

const (
	PurposeScan      Purpose = "scan"
	PurposeSteer     Purpose = "steer"
	PurposeAdvance   Purpose = "advance"
	PurposeBacktrack Purpose = "backtrack"
)

// Step is one command issued during exploration
type Step struct {
	Command world.Command  `json:"command"`
	Purpose Purpose        `json:"purpose"`
	From    world.Position `json:"from"`
}

// Outcome describes how a run ended
type Outcome string

const (
	OutcomeFound     Outcome = "found"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeBudget    Outcome = "budget"
)

// Result summarises an exploration run
type Result struct {
	Found      bool           `json:"found"`
	Object     world.Position `json:"object"`
	Iterations int            `json:"iterations"`
	Backtracks int            `json:"backtracks"`
	Outcome    Outcome        `json:"outcome"`
}

// Stats is a point-in-time view of the explorer
type Stats struct {
	KnownCells int            `json:"known_cells"`
	Visited    int            `json:"visited"`
	StackDepth int            `json:"stack_depth"`
	Position   world.Position `json:"position"`
	Advances   int            `json:"advances"`
	Rotations  int            `json:"rotations"`
	Found      bool           `json:"found"`
	Object     world.Position `json:"object"`
}

// Option configures an Explorer
type Option func(*Explorer)

// WithMaxIterations overrides the iteration budget; non-positive values are ignored
func WithMaxIterations(n int) Option {
	return func(e *Explorer) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithScanMode selects the neighbour scanning strategy
func WithScanMode(m ScanMode) Option {
	return func(e *Explorer) {
		if m != "" {
			e.mode = m
		}
	}
}

// WithLogger sets the logger used for exploration progress
func WithLogger(l *zap.Logger) Option {
	return func(e *Explorer) {
		if l != nil {
			e.log = l
		}
	}
}

// Explorer searches for the object depth-first using only sensor readings.
// One Explorer serves a single run.
type Explorer struct {
	agent         Agent
	known         *KnownMap
	stack         []world.Position
	visited       map[world.Position]bool
	scanned       map[world.Position]bool
	trace         []Step
	maxIterations int
	mode          ScanMode
	log           *zap.Logger

	found      bool
	object     world.Position
	advances   int
	rotations  int
	iterations int
	backtracks int
}

// New creates an explorer for the agent
func New(agent Agent, opts ...Option) *Explorer {
	e := &Explorer{
		agent:         agent,
		maxIterations: DefaultMaxIterations,
		mode:          ScanFull,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e
}

func (e *Explorer) reset() {
	e.known = NewKnownMap()
	e.stack = nil
	e.visited = make(map[world.Position]bool)
	e.scanned = make(map[world.Position]bool)
	e.trace = nil
	e.found = false
	e.object = world.Position{}
	e.advances, e.rotations, e.iterations, e.backtracks = 0, 0, 0, 0
}

// Known returns the map built so far
func (e *Explorer) Known() *KnownMap {
	return e.known
}

// Trace returns the commands issued by the last run
func (e *Explorer) Trace() []Step {
	return append([]Step(nil), e.trace...)
}

// Stats returns the current exploration statistics
func (e *Explorer) Stats() Stats {
	s := Stats{
		KnownCells: e.known.Len(),
		Visited:    len(e.visited),
		StackDepth: len(e.stack),
		Position:   e.agent.State().Position,
		Advances:   e.advances,
		Rotations:  e.rotations,
		Found:      e.found,
	}
	if e.found {
		s.Object = e.object
	}
	return s
}

// Explore runs until the object is in front of the agent, the stack empties,
// or the budget runs out; Result.Outcome says which. An error means a command
// failed or the agent drifted from the stack.
func (e *Explorer) Explore() (Result, error) {
	e.reset()
	start := e.agent.State().Position
	e.known.Record(start, world.Entrance)
	e.stack = append(e.stack, start)
	e.visited[start] = true

	e.log.Info("exploration started",
		zap.String("position", start.String()),
		zap.String("mode", string(e.mode)),
		zap.Int("max_iterations", e.maxIterations))

	for e.iterations < e.maxIterations {
		e.iterations++
		current := e.stack[len(e.stack)-1]
		if at := e.agent.State().Position; at != current {
			return e.result(""), fmt.Errorf("%w: agent at %s, stack top %s", ErrInvariant, at, current)
		}

		found, err := e.step(current)
		if err != nil {
			return e.result(""), err
		}
		if found {
			e.log.Info("object located",
				zap.String("object", e.object.String()),
				zap.Int("iterations", e.iterations),
				zap.Int("backtracks", e.backtracks))
			return e.result(OutcomeFound), nil
		}
		if len(e.stack) == 0 {
			e.log.Warn("exploration exhausted without finding the object",
				zap.Int("iterations", e.iterations),
				zap.Int("known_cells", e.known.Len()))
			return e.result(OutcomeExhausted), nil
		}
	}

	e.log.Warn("exploration budget exhausted",
		zap.Int("iterations", e.iterations),
		zap.Int("stack_depth", len(e.stack)))
	return e.result(OutcomeBudget), nil
}

func (e *Explorer) result(o Outcome) Result {
	return Result{
		Found:      e.found,
		Object:     e.object,
		Iterations: e.iterations,
		Backtracks: e.backtracks,
		Outcome:    o,
	}
}

// step performs one iteration at the stack top. It reports whether the
// object is now directly in front of the agent.
func (e *Explorer) step(current world.Position) (bool, error) {
	if e.mode == ScanFull && !e.scanned[current] {
		found, err := e.scanAll(current)
		if err != nil || found {
			return found, err
		}
	}

	heading := e.agent.State().Orientation
	candidates := [3]world.Orientation{heading, heading.Rotate(), heading.Rotate().Rotate().Rotate()}
	for _, dir := range candidates {
		next := current.Step(dir)
		cell, known := e.known.Lookup(next)

		if !known {
			// only reachable in lazy mode
			if _, err := e.face(dir, PurposeScan); err != nil {
				return false, err
			}
			if e.observe(current) == world.Object {
				return e.locate(next), nil
			}
			cell, _ = e.known.Lookup(next)
		}

		switch {
		case cell == world.Object:
			if _, err := e.face(dir, PurposeSteer); err != nil {
				return false, err
			}
			return e.locate(next), nil
		case cell == world.Wall || e.visited[next]:
			continue
		}

		if _, err := e.face(dir, PurposeSteer); err != nil {
			return false, err
		}
		if err := e.exec(world.Advance, PurposeAdvance); err != nil {
			return false, err
		}
		e.stack = append(e.stack, next)
		e.visited[next] = true
		e.log.Debug("advanced", zap.String("to", next.String()), zap.Int("depth", len(e.stack)))
		return false, nil
	}

	return false, e.backtrack(current)
}

// scanAll sweeps the four headings, recording the front cell each time and
// ending on the starting heading. It stops early when the object is ahead.
func (e *Explorer) scanAll(current world.Position) (bool, error) {
	e.scanned[current] = true
	for turn := 0; turn < 4; turn++ {
		if turn > 0 {
			if err := e.exec(world.Rotate, PurposeScan); err != nil {
				return false, err
			}
		}
		if e.observe(current) == world.Object {
			return e.locate(current.Step(e.agent.State().Orientation)), nil
		}
	}
	return false, e.exec(world.Rotate, PurposeScan)
}

// observe senses and records all three readings at their absolute positions
func (e *Explorer) observe(current world.Position) world.CellType {
	heading := e.agent.State().Orientation
	readings := e.agent.Sense()
	offsets := world.SensorOffsets(heading)
	for i, v := range readings.Values() {
		e.known.Record(current.Add(offsets[i]), v)
	}
	return readings.Front
}

func (e *Explorer) locate(p world.Position) bool {
	e.known.Record(p, world.Object)
	e.found = true
	e.object = p
	return true
}

func (e *Explorer) backtrack(current world.Position) error {
	e.stack = e.stack[:len(e.stack)-1]
	if len(e.stack) == 0 {
		return nil
	}
	e.backtracks++
	target := e.stack[len(e.stack)-1]
	e.log.Debug("backtracking", zap.String("from", current.String()), zap.String("to", target.String()))

	dir, ok := world.DirectionTo(current, target)
	if !ok {
		return fmt.Errorf("%w: stack cells %s and %s are not adjacent", ErrInvariant, current, target)
	}
	if _, err := e.face(dir, PurposeBacktrack); err != nil {
		return err
	}
	return e.exec(world.Advance, PurposeBacktrack)
}

func (e *Explorer) face(dir world.Orientation, purpose Purpose) (int, error) {
	turns := world.RotationsBetween(e.agent.State().Orientation, dir)
	for i := 0; i < turns; i++ {
		if err := e.exec(world.Rotate, purpose); err != nil {
			return i, err
		}
	}
	return turns, nil
}

func (e *Explorer) exec(cmd world.Command, purpose Purpose) error {
	from := e.agent.State().Position
	if err := e.agent.Execute(cmd); err != nil {
		return fmt.Errorf("explore %s at %s: %w", cmd.Name(), from, err)
	}
	switch cmd {
	case world.Rotate:
		e.rotations++
	case world.Advance:
		e.advances++
	}
	e.trace = append(e.trace, Step{Command: cmd, Purpose: purpose, From: from})
	return nil
}

// PathTo plans a route from the agent to goal over observed cells only
func (e *Explorer) PathTo(goal world.Position) ([]world.Position, error) {
	return pathfind.FindPath(e.known, e.agent.State().Position, goal)
}
