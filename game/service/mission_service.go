package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// MissionService defines all rescue-related operations
type MissionService interface {
	// Session Management
	CreateSession(ctx context.Context, mapName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Agent Operations
	Sense(ctx context.Context, sessionID string) (*SenseResult, error)
	Execute(ctx context.Context, sessionID, commands string) (*CommandResult, error)
	RunMission(ctx context.Context, sessionID string) (*MissionResult, error)
	FindPath(ctx context.Context, sessionID string, goal world.Position) (*PathResult, error)
	Reset(ctx context.Context, sessionID string) (*StateView, error)

	// State
	GetState(ctx context.Context, sessionID string) (*StateView, error)

	// Maps
	ListMaps(ctx context.Context) ([]*MapInfo, error)
	LoadMap(ctx context.Context, name string) (*MapDetail, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, mapName string, grid *world.Grid) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	LastAccessed(id string) (time.Time, error)
	Save(id string) error
}

// MapManager handles map loading
type MapManager interface {
	LoadMap(name string) (*world.Grid, error)
	ListMaps() ([]*MapInfo, error)
	GetDefault() string
	SaveMap(name string, grid *world.Grid) error
}

// Session represents an active rescue session
type Session struct {
	ID             string
	World          *world.World
	MapName        string
	LastReport     *mission.Report
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
