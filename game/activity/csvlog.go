package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// Marker labels a row that is not an agent command
type Marker string

const (
	MarkerStart Marker = "START"
	MarkerInfo  Marker = "INFO"
	MarkerError Marker = "ERROR"
	MarkerAlarm Marker = "ALARM"
)

// Header is the first row of every log file
var Header = []string{"command", "left_sensor", "front_sensor", "right_sensor", "compartment"}

// Stats summarises a log session
type Stats struct {
	TotalRows int       `json:"total_rows"`
	Commands  int       `json:"commands"`
	Errors    int       `json:"errors"`
	Alarms    int       `json:"alarms"`
	StartedAt time.Time `json:"started_at"`
	Path      string    `json:"path,omitempty"`
}

// CSVLog writes one row per executed command and implements mission.ActivitySink
type CSVLog struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	path   string
	stats  Stats
}

// New writes the header to w and returns a log appending to it
func New(w io.Writer) (*CSVLog, error) {
	l := &CSVLog{w: csv.NewWriter(w), stats: Stats{StartedAt: time.Now()}}
	if err := l.write(Header); err != nil {
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}
	return l, nil
}

// Open creates <dir>/<session>_<timestamp>.csv
func Open(dir, session string) (*CSVLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.csv", session, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	l, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	l.closer = f
	l.path = path
	l.stats.Path = path
	return l, nil
}

// Path returns the log file path, empty for writer-backed logs
func (l *CSVLog) Path() string {
	return l.path
}

func compartment(carrying bool) string {
	if carrying {
		return "loaded"
	}
	return "empty"
}

func (l *CSVLog) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// Record appends a command row, followed by an ERROR row when the command failed
func (l *CSVLog) Record(rec mission.ActivityRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := []string{
		rec.Command.String(),
		string(rec.Readings.Left),
		string(rec.Readings.Front),
		string(rec.Readings.Right),
		compartment(rec.Agent.Carrying),
	}
	if err := l.write(row); err != nil {
		return err
	}
	l.stats.TotalRows++
	l.stats.Commands++

	if rec.Err != "" {
		return l.marker(MarkerError, rec.Err, rec.Agent.Carrying)
	}
	return nil
}

// Start writes the session start row with the initial readings
func (l *CSVLog) Start(readings world.Readings, agent world.AgentState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.write([]string{
		string(MarkerStart),
		string(readings.Left),
		string(readings.Front),
		string(readings.Right),
		compartment(agent.Carrying),
	}); err != nil {
		return err
	}
	l.stats.TotalRows++
	return nil
}

// Info writes an INFO row
func (l *CSVLog) Info(msg string, carrying bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.marker(MarkerInfo, msg, carrying)
}

// Error writes an ERROR row
func (l *CSVLog) Error(msg string, carrying bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.marker(MarkerError, msg, carrying)
}

// Alarm writes an ALARM row
func (l *CSVLog) Alarm(msg string, carrying bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.marker(MarkerAlarm, msg, carrying)
}

func (l *CSVLog) marker(m Marker, msg string, carrying bool) error {
	if err := l.write([]string{string(m), msg, "", "", compartment(carrying)}); err != nil {
		return err
	}
	l.stats.TotalRows++
	switch m {
	case MarkerError:
		l.stats.Errors++
	case MarkerAlarm:
		l.stats.Alarms++
	}
	return nil
}

// Stats returns the counters for this session
func (l *CSVLog) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Close flushes and closes the underlying file
func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if l.closer != nil {
		return l.closer.Close()
	}
	return l.w.Error()
}

// ReadStats recomputes session statistics from an existing log
func ReadStats(r io.Reader) (Stats, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read log: %w", err)
	}
	var s Stats
	if len(rows) <= 1 {
		return s, nil
	}
	for _, row := range rows[1:] {
		s.TotalRows++
		if len(row) == 0 {
			continue
		}
		switch Marker(row[0]) {
		case MarkerStart, MarkerInfo:
		case MarkerError:
			s.Errors++
		case MarkerAlarm:
			s.Alarms++
		default:
			s.Commands++
		}
	}
	return s, nil
}
