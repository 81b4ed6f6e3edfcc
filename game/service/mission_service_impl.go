package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rescuebot/game/activity"
	"github.com/wricardo/mcp-training/rescuebot/game/explore"
	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/pathfind"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// ErrNotFound is wrapped by every lookup failure of a session or map
var ErrNotFound = errors.New("not found")

// NotifierFactory returns the notifier for a session's missions and commands
type NotifierFactory func(sessionID string) mission.Notifier

// Option configures the mission service
type Option func(*missionServiceImpl)

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *missionServiceImpl) {
		if l != nil {
			s.log = l
		}
	}
}

// WithNotifiers attaches a per-session notifier, typically the websocket hub
func WithNotifiers(f NotifierFactory) Option {
	return func(s *missionServiceImpl) {
		s.notifiers = f
	}
}

// WithMetrics attaches Prometheus collectors to every mission
func WithMetrics(m *mission.Metrics) Option {
	return func(s *missionServiceImpl) {
		s.metrics = m
	}
}

// WithActivityLogs writes a CSV activity log per mission into dir
func WithActivityLogs(dir string) Option {
	return func(s *missionServiceImpl) {
		s.logsDir = dir
	}
}

// WithExploreOptions sets the exploration options for every mission
func WithExploreOptions(opts ...explore.Option) Option {
	return func(s *missionServiceImpl) {
		s.exploreOpts = append(s.exploreOpts, opts...)
	}
}

// missionServiceImpl implements the MissionService interface
type missionServiceImpl struct {
	sessions    SessionManager
	maps        MapManager
	notifiers   NotifierFactory
	metrics     *mission.Metrics
	logsDir     string
	exploreOpts []explore.Option
	log         *zap.Logger
	mu          sync.RWMutex
}

// NewMissionService creates a new mission service instance
func NewMissionService(sessions SessionManager, maps MapManager, opts ...Option) MissionService {
	s := &missionServiceImpl{
		sessions: sessions,
		maps:     maps,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *missionServiceImpl) session(id string) (*Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: session %q: %w", ErrNotFound, id, err)
	}
	s.sessions.UpdateLastAccessed(id)
	return sess, nil
}

func (s *missionServiceImpl) persist(id string) {
	if err := s.sessions.Save(id); err != nil {
		s.log.Warn("failed to persist session", zap.String("session_id", id), zap.Error(err))
	}
}

func (s *missionServiceImpl) info(sess *Session) *SessionInfo {
	accessed, err := s.sessions.LastAccessed(sess.ID)
	if err != nil {
		accessed = sess.CreatedAt
	}
	return &SessionInfo{
		ID:             sess.ID,
		MapName:        sess.MapName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: accessed,
		State:          NewStateView(sess.World),
		LastMission:    Summarize(sess.LastReport),
	}
}

// NewStateView captures the current state of a world
func NewStateView(w *world.World) *StateView {
	agent := w.State()
	return &StateView{
		MapName:  w.Name(),
		Rows:     w.Rows(),
		Cols:     w.Cols(),
		Entrance: w.Entrance(),
		Agent:    agent,
		Heading:  agent.Orientation.String(),
		Readings: w.Sense(),
		Grid:     w.Snapshot().Lines(),
		Render:   w.Render(),
	}
}

// CreateSession creates a new session on a map, or on the default map when name is empty
func (s *missionServiceImpl) CreateSession(ctx context.Context, mapName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mapName == "" {
		mapName = s.maps.GetDefault()
	}
	grid, err := s.maps.LoadMap(mapName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if available, listErr := s.maps.ListMaps(); listErr == nil && len(available) > 0 {
				ids := make([]string, 0, len(available))
				for _, m := range available {
					ids = append(ids, m.MapID)
				}
				return nil, fmt.Errorf("%w (available maps: %v)", err, ids)
			}
		}
		return nil, fmt.Errorf("failed to load map %s: %w", mapName, err)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", mapName, grid)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.log.Info("session created", zap.String("session_id", sess.ID), zap.String("map", mapName))
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *missionServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *missionServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *missionServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: session %q: %w", ErrNotFound, sessionID, err)
	}
	return nil
}

// Sense returns the readings at the agent's current pose together with a safety verdict
func (s *missionServiceImpl) Sense(ctx context.Context, sessionID string) (*SenseResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	readings := sess.World.Sense()
	res := &SenseResult{
		Agent:    sess.World.State(),
		Readings: readings,
		Front:    sess.World.Front(),
	}
	if err := mission.ValidateReadings(readings.Values()); err != nil {
		res.Safety = err.Error()
	}
	return res, nil
}

// Execute runs manual commands in order and stops at the first failure
func (s *missionServiceImpl) Execute(ctx context.Context, sessionID, commands string) (*CommandResult, error) {
	cmds, err := world.ParseCommands(commands)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: no commands given", world.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := &CommandResult{
		Requested: len(cmds),
		Success:   true,
		Steps:     make([]StepInfo, 0, len(cmds)),
	}
	if len(cmds) > MaxCommandsPerCall {
		result.Truncated = true
		result.Limit = MaxCommandsPerCall
		cmds = cmds[:MaxCommandsPerCall]
	}

	var notifier mission.Notifier
	if s.notifiers != nil {
		notifier = s.notifiers(sess.ID)
	}

	w := sess.World
	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := w.State()
		execErr := w.Execute(cmd)
		step := StepInfo{
			Idx:      i + 1,
			Command:  cmd.String(),
			Name:     cmd.Name(),
			Before:   before,
			After:    w.State(),
			Readings: w.Sense(),
			Success:  execErr == nil,
		}
		if s.metrics != nil {
			s.metrics.Record(mission.ActivityRecord{Command: cmd, Agent: step.After, Err: errString(execErr)})
		}
		if execErr != nil {
			step.Error = execErr.Error()
			result.Steps = append(result.Steps, step)
			result.Success = false
			result.StoppedOn = i + 1
			result.Error = execErr.Error()
			break
		}
		result.Steps = append(result.Steps, step)
		result.Executed++
		if notifier != nil {
			notifier.Notify(mission.Event{
				Type:    mission.EventForCommand(cmd),
				MapName: sess.MapName,
				Agent:   step.After,
				Time:    time.Now(),
			})
		}
	}

	result.State = NewStateView(w)
	s.persist(sess.ID)
	return result, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// RunMission resets the session world and runs a full rescue mission on it.
// A failed mission is reported in the result, not as an error.
func (s *missionServiceImpl) RunMission(ctx context.Context, sessionID string) (*MissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	w := sess.World
	w.Reset()

	log := s.log.With(zap.String("session_id", sess.ID))
	opts := []mission.Option{
		mission.WithLogger(log),
		mission.WithExploreOptions(s.exploreOpts...),
	}
	if s.notifiers != nil {
		opts = append(opts, mission.WithNotifier(s.notifiers(sess.ID)))
	}
	if s.metrics != nil {
		opts = append(opts, mission.WithNotifier(s.metrics), mission.WithActivitySink(s.metrics))
	}

	var csvLog *activity.CSVLog
	if s.logsDir != "" {
		csvLog, err = activity.Open(s.logsDir, sess.ID)
		if err != nil {
			log.Warn("activity log disabled", zap.Error(err))
		} else {
			defer csvLog.Close()
			csvLog.Start(w.Sense(), w.State())
			opts = append(opts, mission.WithActivitySink(csvLog))
		}
	}

	report, runErr := mission.New(w, opts...).Run(ctx)
	if s.metrics != nil {
		s.metrics.ObserveReport(report)
	}
	if csvLog != nil {
		WriteOutcome(csvLog, report, runErr)
	}

	sess.LastReport = report
	s.persist(sess.ID)

	result := &MissionResult{
		Report:  report,
		Summary: Summarize(report),
		State:   NewStateView(w),
	}
	if csvLog != nil {
		result.LogPath = csvLog.Path()
	}
	if runErr != nil && ctx.Err() != nil {
		return result, runErr
	}
	return result, nil
}

// WriteOutcome closes an activity log with an INFO, ALARM or ERROR row
func WriteOutcome(l *activity.CSVLog, report *mission.Report, err error) {
	carrying := report != nil && report.Final.Carrying
	switch {
	case err == nil:
		l.Info(fmt.Sprintf("mission complete: %s", report.Sequence()), carrying)
	case errors.Is(err, mission.ErrTrappedAgent), errors.Is(err, mission.ErrDeadEnd), errors.Is(err, mission.ErrSensorFault):
		l.Alarm(err.Error(), carrying)
	default:
		l.Error(err.Error(), carrying)
	}
}

// FindPath plans an A* route on the session grid from the agent to goal
func (s *missionServiceImpl) FindPath(ctx context.Context, sessionID string, goal world.Position) (*PathResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	start := sess.World.State().Position
	planner := pathfind.NewPlanner()
	path, err := planner.FindPath(sess.World.Snapshot(), start, goal)
	if err != nil {
		return nil, err
	}
	return &PathResult{
		Start:    start,
		Goal:     goal,
		Path:     path,
		Steps:    len(path) - 1,
		Expanded: planner.Expanded(),
	}, nil
}

// Reset puts the grid and agent back to the map's initial state
func (s *missionServiceImpl) Reset(ctx context.Context, sessionID string) (*StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.World.Reset()
	s.persist(sess.ID)
	return NewStateView(sess.World), nil
}

// GetState returns the current state of a session
func (s *missionServiceImpl) GetState(ctx context.Context, sessionID string) (*StateView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return NewStateView(sess.World), nil
}

// ListMaps returns all available maps
func (s *missionServiceImpl) ListMaps(ctx context.Context) ([]*MapInfo, error) {
	return s.maps.ListMaps()
}

// LoadMap returns a map with its layout
func (s *missionServiceImpl) LoadMap(ctx context.Context, name string) (*MapDetail, error) {
	grid, err := s.maps.LoadMap(name)
	if err != nil {
		return nil, err
	}
	return &MapDetail{
		Info:  NewMapInfo(name, name+".txt", grid),
		Lines: grid.Lines(),
	}, nil
}
