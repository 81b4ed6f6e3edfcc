package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/rescuebot/game/explore"
)

// DefaultSettingsFile is read when present and no file was given explicitly
const DefaultSettingsFile = "rescuebot.yaml"

// Settings holds the runtime configuration of the server and CLI
type Settings struct {
	MapsDir       string        `json:"maps_dir" yaml:"maps_dir"`
	SessionsDir   string        `json:"sessions_dir" yaml:"sessions_dir"`
	LogsDir       string        `json:"logs_dir" yaml:"logs_dir"`
	DefaultMap    string        `json:"default_map,omitempty" yaml:"default_map,omitempty"`
	MaxIterations int           `json:"max_iterations" yaml:"max_iterations"`
	ScanMode      string        `json:"scan_mode" yaml:"scan_mode"`
	SessionTTL    time.Duration `json:"session_ttl" yaml:"session_ttl"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() *Settings {
	return &Settings{
		MapsDir:       "maps",
		SessionsDir:   "sessions",
		LogsDir:       "logs",
		MaxIterations: explore.DefaultMaxIterations,
		ScanMode:      string(explore.ScanFull),
		SessionTTL:    2 * time.Hour,
	}
}

// LoadSettings reads settings from a YAML file on top of the defaults, then
// applies RESCUE_* environment overrides. An empty path falls back to
// DefaultSettingsFile when it exists.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	explicit := path != ""
	if !explicit {
		path = DefaultSettingsFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := s.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyEnv overrides fields from RESCUE_* variables
func (s *Settings) ApplyEnv(getenv func(string) string) error {
	for key, dst := range map[string]*string{
		"RESCUE_MAPS_DIR":     &s.MapsDir,
		"RESCUE_SESSIONS_DIR": &s.SessionsDir,
		"RESCUE_LOGS_DIR":     &s.LogsDir,
		"RESCUE_DEFAULT_MAP":  &s.DefaultMap,
		"RESCUE_SCAN_MODE":    &s.ScanMode,
	} {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	if v := getenv("RESCUE_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: RESCUE_MAX_ITERATIONS=%q", ErrInvalidSettings, v)
		}
		s.MaxIterations = n
	}
	if v := getenv("RESCUE_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: RESCUE_SESSION_TTL=%q", ErrInvalidSettings, v)
		}
		s.SessionTTL = d
	}
	return nil
}

// Validate checks value ranges
func (s *Settings) Validate() error {
	if s.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", ErrInvalidSettings, s.MaxIterations)
	}
	if _, err := explore.ParseScanMode(s.ScanMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if s.MapsDir == "" {
		return fmt.Errorf("%w: maps_dir is required", ErrInvalidSettings)
	}
	return nil
}

// ExploreOptions converts the settings into exploration options
func (s *Settings) ExploreOptions() []explore.Option {
	mode, _ := explore.ParseScanMode(s.ScanMode)
	return []explore.Option{
		explore.WithMaxIterations(s.MaxIterations),
		explore.WithScanMode(mode),
	}
}
