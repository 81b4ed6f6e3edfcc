package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// FilePersistence implements SessionPersistence using file system storage
type FilePersistence struct {
	sessionsDir string
	maps        MapLoader
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, maps MapLoader) (*FilePersistence, error) {
	// Create sessions directory if it doesn't exist
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir: sessionsDir,
		maps:        maps,
	}, nil
}

// Save persists a session to a JSON file
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil || session.World == nil {
		return fmt.Errorf("session cannot be nil")
	}

	lines := session.World.Snapshot().Lines()
	for i, line := range lines {
		lines[i] = strings.ReplaceAll(line, " ", ".")
	}
	data := PersistedSessionData{
		ID:             session.ID,
		MapName:        session.MapName,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Agent:          session.World.State(),
		Grid:           lines,
		LastReport:     session.LastReport,
	}

	// Marshal to JSON with indentation for readability
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := os.WriteFile(fp.getFilePath(session.ID), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load rebuilds a session from its map and restores the saved grid and agent
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	initial, err := fp.maps.LoadMap(data.MapName)
	if err != nil {
		return nil, fmt.Errorf("failed to load map '%s': %w", data.MapName, err)
	}
	w, err := world.New(data.MapName, initial)
	if err != nil {
		return nil, fmt.Errorf("failed to create world: %w", err)
	}

	current, err := world.ParseLines(data.Grid)
	if err != nil {
		return nil, fmt.Errorf("failed to parse saved grid: %w", err)
	}
	if err := w.Restore(current, data.Agent); err != nil {
		return nil, fmt.Errorf("failed to restore world state: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		World:          w,
		MapName:        data.MapName,
		LastReport:     data.LastReport,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}
	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}
	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a session ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", strings.ToLower(id)))
}
