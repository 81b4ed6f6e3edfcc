package session

import (
	"time"

	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// MapLoader resolves a map name to its initial grid
type MapLoader interface {
	LoadMap(name string) (*world.Grid, error)
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// Grid rows use '.' for open cells so that no row is blank.
type PersistedSessionData struct {
	ID             string           `json:"id"`
	MapName        string           `json:"map_name"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Agent          world.AgentState `json:"agent"`
	Grid           []string         `json:"grid"`
	LastReport     *mission.Report  `json:"last_report,omitempty"`
}
