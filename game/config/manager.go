package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// MapExt is the file extension of map files
const MapExt = ".txt"

// BuiltinMap is the name of the fallback map used when the directory has no valid map
const BuiltinMap = "builtin"

var (
	ErrMapNotFound     = fmt.Errorf("map %w", service.ErrNotFound)
	ErrInvalidMap      = errors.New("invalid map")
	ErrInvalidSettings = errors.New("invalid settings")
)

// builtinLayout is a small corridor with one side branch
var builtinLayout = []string{
	"**E***",
	"** * *",
	"**   *",
	"*** @*",
	"******",
}

// Manager handles map loading and caching
type Manager struct {
	mapsDir    string
	defaultMap string
	maps       map[string]*world.Grid
	mu         sync.RWMutex
}

// NewManager creates a new map manager
func NewManager(mapsDir string) (*Manager, error) {
	// Ensure maps directory exists
	if _, err := os.Stat(mapsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("maps directory does not exist: %s", mapsDir)
	}

	m := &Manager{
		mapsDir: mapsDir,
		maps:    make(map[string]*world.Grid),
	}
	m.loadDefaultMap()
	return m, nil
}

// ParseMap parses map file content and validates it as a world
func ParseMap(data []byte) (*world.Grid, error) {
	grid, err := world.ParseLines(strings.Split(string(data), "\n"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	if _, err := world.New("", grid); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	return grid, nil
}

// ReadMapFile reads and validates a single map file
func ReadMapFile(path string) (*world.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMapNotFound, path)
		}
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	return ParseMap(data)
}

// LoadMap loads a map by name. The returned grid is a copy the caller may modify.
func (m *Manager) LoadMap(name string) (*world.Grid, error) {
	name = strings.TrimSuffix(name, MapExt)

	m.mu.RLock()
	// Check cache first
	if grid, exists := m.maps[name]; exists {
		m.mu.RUnlock()
		return grid.Clone(), nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if grid, exists := m.maps[name]; exists {
		return grid.Clone(), nil
	}

	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrMapNotFound, name)
	}
	grid, err := ReadMapFile(filepath.Join(m.mapsDir, name+MapExt))
	if err != nil {
		return nil, err
	}

	m.maps[name] = grid
	return grid.Clone(), nil
}

// ListMaps returns information about all valid maps in the directory
func (m *Manager) ListMaps() ([]*service.MapInfo, error) {
	entries, err := os.ReadDir(m.mapsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read maps directory: %w", err)
	}

	var maps []*service.MapInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), MapExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), MapExt)

		grid, err := m.LoadMap(name)
		if err != nil {
			// Skip invalid maps
			continue
		}
		maps = append(maps, service.NewMapInfo(name, entry.Name(), grid))
	}

	sort.Slice(maps, func(i, j int) bool { return maps[i].MapID < maps[j].MapID })
	return maps, nil
}

// GetDefault returns the default map name
func (m *Manager) GetDefault() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultMap
}

// SetDefault sets the default map by name
func (m *Manager) SetDefault(name string) error {
	if _, err := m.LoadMap(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultMap = strings.TrimSuffix(name, MapExt)
	return nil
}

// RefreshCache drops all cached maps and re-selects the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.maps = make(map[string]*world.Grid)
	m.mu.Unlock()

	m.loadDefaultMap()
}

// loadDefaultMap picks "default", then the first valid map, then the builtin layout
func (m *Manager) loadDefaultMap() {
	name := "default"
	if _, err := m.LoadMap(name); err != nil {
		maps, listErr := m.ListMaps()
		if listErr != nil || len(maps) == 0 {
			name = m.installBuiltin()
		} else {
			name = maps[0].MapID
		}
	}

	m.mu.Lock()
	m.defaultMap = name
	m.mu.Unlock()
}

func (m *Manager) installBuiltin() string {
	grid, err := world.ParseLines(builtinLayout)
	if err != nil {
		panic(fmt.Sprintf("builtin map: %v", err))
	}
	m.mu.Lock()
	m.maps[BuiltinMap] = grid
	m.mu.Unlock()
	return BuiltinMap
}

// SaveMap validates a grid and writes it to disk
func (m *Manager) SaveMap(name string, grid *world.Grid) error {
	name = strings.TrimSuffix(name, MapExt)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad map name %q", ErrInvalidMap, name)
	}
	if _, err := world.New(name, grid); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	data := strings.Join(grid.Lines(), "\n") + "\n"
	path := filepath.Join(m.mapsDir, name+MapExt)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write map file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.maps[name] = grid.Clone()
	m.mu.Unlock()

	return nil
}
