package service

import (
	"time"

	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// MaxCommandsPerCall caps a single Execute request
const MaxCommandsPerCall = 500

// SessionInfo provides information about a rescue session
type SessionInfo struct {
	ID             string     `json:"id"`
	MapName        string     `json:"map_name"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	State          *StateView `json:"state"`
	LastMission    *Summary   `json:"last_mission,omitempty"`
}

// StateView is the externally visible state of a session's world
type StateView struct {
	MapName  string           `json:"map_name"`
	Rows     int              `json:"rows"`
	Cols     int              `json:"cols"`
	Entrance world.Position   `json:"entrance"`
	Agent    world.AgentState `json:"agent"`
	Heading  string           `json:"heading"`
	Readings world.Readings   `json:"readings"`
	Grid     []string         `json:"grid"`
	Render   string           `json:"render"`
}

// SenseResult contains the three sensor readings at the current pose
type SenseResult struct {
	Agent    world.AgentState `json:"agent"`
	Readings world.Readings   `json:"readings"`
	Front    world.Position   `json:"front"`
	Safety   string           `json:"safety,omitempty"`
}

// CommandResult contains the result of a manual command batch
type CommandResult struct {
	Requested int        `json:"requested"`
	Executed  int        `json:"executed"`
	Success   bool       `json:"success"`
	StoppedOn int        `json:"stopped_on,omitempty"` // 1-based index of the failing command
	Error     string     `json:"error,omitempty"`
	Truncated bool       `json:"truncated,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Steps     []StepInfo `json:"steps"`
	State     *StateView `json:"state"`
}

// StepInfo is a compact record for each command in a batch
type StepInfo struct {
	Idx      int              `json:"idx"`
	Command  string           `json:"command"`
	Name     string           `json:"name"`
	Before   world.AgentState `json:"before"`
	After    world.AgentState `json:"after"`
	Readings world.Readings   `json:"readings"`
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
}

// MissionResult contains a finished mission run
type MissionResult struct {
	Report  *mission.Report `json:"report"`
	Summary *Summary        `json:"summary"`
	State   *StateView      `json:"state"`
	LogPath string          `json:"log_path,omitempty"`
}

// Summary is a short digest of a mission report
type Summary struct {
	ID         string        `json:"id"`
	State      mission.State `json:"state"`
	FailedIn   mission.State `json:"failed_in,omitempty"`
	Sequence   string        `json:"sequence"`
	Commands   int           `json:"commands"`
	Iterations int           `json:"iterations"`
	Backtracks int           `json:"backtracks"`
	ReturnLen  int           `json:"return_steps"`
	Error      string        `json:"error,omitempty"`
}

// PathResult contains a planned route on the session's grid
type PathResult struct {
	Start    world.Position   `json:"start"`
	Goal     world.Position   `json:"goal"`
	Path     []world.Position `json:"path"`
	Steps    int              `json:"steps"`
	Expanded int              `json:"expanded"`
}

// MapInfo provides information about a map file
type MapInfo struct {
	Filename string         `json:"filename"`
	MapID    string         `json:"map_id"` // The identifier to use for session creation
	Rows     int            `json:"rows"`
	Cols     int            `json:"cols"`
	Entrance world.Position `json:"entrance"`
	Object   world.Position `json:"object"`
	Open     int            `json:"open_cells"`
}

// MapDetail is a map with its layout
type MapDetail struct {
	Info  *MapInfo `json:"info"`
	Lines []string `json:"lines"`
}

// NewMapInfo describes a grid. Entrance and object are left zero when absent.
func NewMapInfo(id, filename string, g *world.Grid) *MapInfo {
	info := &MapInfo{
		Filename: filename,
		MapID:    id,
		Rows:     g.Rows(),
		Cols:     g.Cols(),
		Open:     g.Count(world.Open),
	}
	if ps := g.Find(world.Entrance); len(ps) > 0 {
		info.Entrance = ps[0]
	}
	if ps := g.Find(world.Object); len(ps) > 0 {
		info.Object = ps[0]
	}
	return info
}

// Summarize builds a Summary from a report
func Summarize(r *mission.Report) *Summary {
	if r == nil {
		return nil
	}
	s := &Summary{
		ID:         r.ID,
		State:      r.State,
		FailedIn:   r.FailedIn,
		Sequence:   r.Sequence(),
		Commands:   len(r.Commands),
		Iterations: r.Exploration.Iterations,
		Backtracks: r.Exploration.Backtracks,
		Error:      r.Error,
	}
	if n := len(r.ReturnPath); n > 0 {
		s.ReturnLen = n - 1
	}
	return s
}
