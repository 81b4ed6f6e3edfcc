package mission

import (
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

var (
	ErrTrappedAgent = errors.New("agent is enclosed by walls")
	ErrDeadEnd      = errors.New("agent has no open direction")
	ErrSensorFault  = errors.New("sensor returned an unexpected number of readings")
)

// ValidateReadings checks the post-collection readings in left, front, right order.
// Rules run in order: all walls, no open direction, reading count.
func ValidateReadings(readings []world.CellType) error {
	walls, open := 0, 0
	for _, r := range readings {
		switch r {
		case world.Wall:
			walls++
		case world.Open:
			open++
		}
	}
	if len(readings) >= 3 && walls == len(readings) {
		return fmt.Errorf("%w: readings %v", ErrTrappedAgent, readings)
	}
	if open == 0 {
		return fmt.Errorf("%w: readings %v", ErrDeadEnd, readings)
	}
	if len(readings) != 3 {
		return fmt.Errorf("%w: got %d readings", ErrSensorFault, len(readings))
	}
	return nil
}
