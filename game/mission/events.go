package mission

import (
	"time"

	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// EventType identifies a mission notification
type EventType string

const (
	EventMovement        EventType = "movement"
	EventRotation        EventType = "rotation"
	EventPickup          EventType = "pickup"
	EventEject           EventType = "eject"
	EventDiscovery       EventType = "discovery"
	EventMissionComplete EventType = "mission_complete"
	EventMissionFailed   EventType = "mission_failed"
)

// Event is a fire-and-forget notification about mission progress
type Event struct {
	Type      EventType        `json:"type"`
	MissionID string           `json:"mission_id"`
	MapName   string           `json:"map_name"`
	State     State            `json:"state"`
	Agent     world.AgentState `json:"agent"`
	Message   string           `json:"message,omitempty"`
	Time      time.Time        `json:"time"`
}

// Notifier receives mission events. Implementations must not block.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ev Event)

// Notify calls f(ev)
func (f NotifierFunc) Notify(ev Event) {
	f(ev)
}

// ActivityRecord is the per-command activity log entry
type ActivityRecord struct {
	MissionID string           `json:"mission_id"`
	Phase     State            `json:"phase"`
	Command   world.Command    `json:"command"`
	Readings  world.Readings   `json:"readings"`
	Agent     world.AgentState `json:"agent"`
	Err       string           `json:"error,omitempty"`
	Time      time.Time        `json:"time"`
}

// ActivitySink stores activity records
type ActivitySink interface {
	Record(rec ActivityRecord) error
}

// EventForCommand maps a successful command to its notification type
func EventForCommand(cmd world.Command) EventType {
	switch cmd {
	case world.Advance:
		return EventMovement
	case world.Rotate:
		return EventRotation
	case world.Pickup:
		return EventPickup
	default:
		return EventEject
	}
}
