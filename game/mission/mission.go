package mission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rescuebot/game/explore"
	"github.com/wricardo/mcp-training/rescuebot/game/pathfind"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// State is a mission phase
type State string

const (
	StateIdle       State = "idle"
	StateExploring  State = "exploring"
	StateCollecting State = "collecting"
	StateValidating State = "validating"
	StateReturning  State = "returning"
	StateEjecting   State = "ejecting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrNoExit         = errors.New("no exit on the grid border")
)

// World is the ground truth the mission drives
type World interface {
	explore.Agent
	Snapshot() *world.Grid
}

// Named is implemented by worlds that know their map name
type Named interface {
	Name() string
}

// CommandRecord is one command issued during the mission
type CommandRecord struct {
	Phase   State            `json:"phase"`
	Command world.Command    `json:"command"`
	Agent   world.AgentState `json:"agent"`
	Error   string           `json:"error,omitempty"`
}

// Report is the outcome of a mission run
type Report struct {
	ID          string           `json:"id"`
	MapName     string           `json:"map_name"`
	State       State            `json:"state"`
	FailedIn    State            `json:"failed_in,omitempty"`
	Exploration explore.Result   `json:"exploration"`
	Steps       []explore.Step   `json:"exploration_steps"`
	Entrance    world.Position   `json:"entrance"`
	KnownMap    string           `json:"known_map"` // explored area, unknown cells as '?'
	Exit        world.Position   `json:"exit"`
	ReturnPath  []world.Position `json:"return_path,omitempty"`
	Commands    []CommandRecord  `json:"commands"`
	Final       world.AgentState `json:"final"`
	StartedAt   time.Time        `json:"started_at"`
	Duration    time.Duration    `json:"duration"`
	Error       string           `json:"error,omitempty"`
}

// Sequence returns the successful commands as a command string, e.g. "GGGGAPGGAE"
func (r *Report) Sequence() string {
	var b strings.Builder
	for _, c := range r.Commands {
		if c.Error == "" {
			b.WriteString(c.Command.String())
		}
	}
	return b.String()
}

// Option configures a Mission
type Option func(*Mission)

// WithNotifier adds an event notifier; nil is ignored
func WithNotifier(n Notifier) Option {
	return func(m *Mission) {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
}

// WithActivitySink adds an activity sink; nil is ignored
func WithActivitySink(s ActivitySink) Option {
	return func(m *Mission) {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
}

// WithLogger sets the mission logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Mission) {
		if l != nil {
			m.log = l
		}
	}
}

// WithExploreOptions forwards options to the explorer
func WithExploreOptions(opts ...explore.Option) Option {
	return func(m *Mission) {
		m.exploreOpts = append(m.exploreOpts, opts...)
	}
}

// WithID fixes the mission id instead of generating one
func WithID(id string) Option {
	return func(m *Mission) {
		m.id = id
	}
}

// Mission sequences explore, collect, validate, return and eject.
// It is single use and not safe for concurrent use.
type Mission struct {
	id          string
	world       World
	mapName     string
	state       State
	notifiers   []Notifier
	sinks       []ActivitySink
	exploreOpts []explore.Option
	log         *zap.Logger
	report      *Report
}

// New creates an idle mission on the world
func New(w World, opts ...Option) *Mission {
	m := &Mission{
		id:    uuid.NewString(),
		world: w,
		state: StateIdle,
		log:   zap.NewNop(),
	}
	if n, ok := w.(Named); ok {
		m.mapName = n.Name()
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("mission_id", m.id), zap.String("map", m.mapName))
	return m
}

// ID returns the mission id
func (m *Mission) ID() string {
	return m.id
}

// State returns the current phase
func (m *Mission) State() State {
	return m.state
}

// Run executes the mission. The report is returned even when the mission fails.
func (m *Mission) Run(ctx context.Context) (*Report, error) {
	if m.state != StateIdle {
		return m.report, fmt.Errorf("%w: mission already run", world.ErrInvalidInput)
	}
	m.report = &Report{
		ID:        m.id,
		MapName:   m.mapName,
		StartedAt: time.Now(),
	}
	err := m.run(ctx)
	m.report.Duration = time.Since(m.report.StartedAt)
	m.report.Final = m.world.State()
	m.report.State = m.state

	if err != nil {
		m.report.Error = err.Error()
		m.log.Error("mission failed", zap.String("phase", string(m.report.FailedIn)), zap.Error(err))
		m.notify(EventMissionFailed, err.Error())
		return m.report, err
	}
	m.log.Info("mission complete",
		zap.Int("commands", len(m.report.Commands)),
		zap.Int("return_steps", len(m.report.ReturnPath)),
		zap.Duration("duration", m.report.Duration))
	m.notify(EventMissionComplete, "")
	return m.report, nil
}

func (m *Mission) run(ctx context.Context) error {
	agent := &recordingAgent{mission: m}

	if err := m.enter(ctx, StateExploring); err != nil {
		return err
	}
	explorer := explore.New(agent, append([]explore.Option{explore.WithLogger(m.log)}, m.exploreOpts...)...)
	res, err := explorer.Explore()
	m.report.Exploration = res
	m.report.Steps = explorer.Trace()
	known := explorer.Known()
	m.report.KnownMap = known.Render()
	if entrance, ok := known.Find(world.Entrance); ok {
		m.report.Entrance = entrance
	}
	if err != nil {
		return m.fail(err)
	}
	if !res.Found {
		return m.fail(fmt.Errorf("%w: exploration %s after %d iterations", ErrObjectNotFound, res.Outcome, res.Iterations))
	}
	m.notify(EventDiscovery, fmt.Sprintf("object located at %s", res.Object))

	if err := m.enter(ctx, StateCollecting); err != nil {
		return err
	}
	if err := agent.Execute(world.Pickup); err != nil {
		return m.fail(err)
	}

	if err := m.enter(ctx, StateValidating); err != nil {
		return err
	}
	if err := ValidateReadings(m.world.Sense().Values()); err != nil {
		return m.fail(err)
	}

	if err := m.enter(ctx, StateReturning); err != nil {
		return err
	}
	if err := m.returnToExit(agent); err != nil {
		m.cleanup(agent)
		return m.fail(err)
	}

	if err := m.enter(ctx, StateEjecting); err != nil {
		return err
	}
	if m.world.State().Carrying {
		if err := agent.Execute(world.Eject); err != nil {
			return m.fail(err)
		}
	}

	m.state = StateDone
	return nil
}

func (m *Mission) enter(ctx context.Context, s State) error {
	if err := ctx.Err(); err != nil {
		return m.fail(err)
	}
	m.log.Debug("mission phase", zap.String("from", string(m.state)), zap.String("to", string(s)))
	m.state = s
	return nil
}

func (m *Mission) fail(err error) error {
	m.report.FailedIn = m.state
	m.state = StateFailed
	return err
}

func (m *Mission) returnToExit(agent *recordingAgent) error {
	snapshot := m.world.Snapshot()
	exit, err := FindExit(snapshot)
	if err != nil {
		return err
	}
	m.report.Exit = exit

	path, err := pathfind.FindPath(snapshot, m.world.State().Position, exit)
	if err != nil {
		return fmt.Errorf("return route to %s: %w", exit, err)
	}
	m.report.ReturnPath = path
	m.log.Info("returning to exit", zap.String("exit", exit.String()), zap.Int("steps", len(path)-1))
	return world.FollowPath(agent, path)
}

// cleanup drops the object when the agent is stuck on the border while carrying it.
// A failure here is logged and never replaces the return error.
func (m *Mission) cleanup(agent *recordingAgent) {
	state := m.world.State()
	if !state.Carrying || !m.world.Snapshot().OnBorder(state.Position) {
		return
	}
	if err := agent.Execute(world.Eject); err != nil {
		m.log.Warn("best-effort eject failed", zap.Error(err))
	}
}

// FindExit locates the entrance on the grid border. Left and right columns are
// scanned row by row before the top and bottom rows.
func FindExit(g *world.Grid) (world.Position, error) {
	rows, cols := g.Rows(), g.Cols()
	for r := 0; r < rows; r++ {
		for _, c := range []int{0, cols - 1} {
			if p := (world.Position{Row: r, Col: c}); g.At(p) == world.Entrance {
				return p, nil
			}
		}
	}
	for _, r := range []int{0, rows - 1} {
		for c := 0; c < cols; c++ {
			if p := (world.Position{Row: r, Col: c}); g.At(p) == world.Entrance {
				return p, nil
			}
		}
	}
	return world.Position{}, ErrNoExit
}

func (m *Mission) notify(t EventType, msg string) {
	if len(m.notifiers) == 0 {
		return
	}
	ev := Event{
		Type:      t,
		MissionID: m.id,
		MapName:   m.mapName,
		State:     m.state,
		Agent:     m.world.State(),
		Message:   msg,
		Time:      time.Now(),
	}
	for _, n := range m.notifiers {
		n.Notify(ev)
	}
}

func (m *Mission) record(cmd world.Command, err error) {
	rec := CommandRecord{Phase: m.state, Command: cmd, Agent: m.world.State()}
	if err != nil {
		rec.Error = err.Error()
	}
	m.report.Commands = append(m.report.Commands, rec)

	if len(m.sinks) > 0 {
		act := ActivityRecord{
			MissionID: m.id,
			Phase:     m.state,
			Command:   cmd,
			Readings:  m.world.Sense(),
			Agent:     rec.Agent,
			Err:       rec.Error,
			Time:      time.Now(),
		}
		for _, s := range m.sinks {
			if serr := s.Record(act); serr != nil {
				m.log.Warn("activity sink failed", zap.Error(serr))
			}
		}
	}
	if err == nil {
		m.notify(EventForCommand(cmd), "")
	}
}

// recordingAgent forwards to the world and records every command
type recordingAgent struct {
	mission *Mission
}

func (a *recordingAgent) Sense() world.Readings {
	return a.mission.world.Sense()
}

func (a *recordingAgent) State() world.AgentState {
	return a.mission.world.State()
}

func (a *recordingAgent) Execute(cmd world.Command) error {
	err := a.mission.world.Execute(cmd)
	a.mission.record(cmd, err)
	return err
}
