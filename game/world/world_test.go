package world

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustWorld(t *testing.T, lines ...string) *World {
	t.Helper()
	grid, err := ParseLines(lines)
	if err != nil {
		t.Fatalf("Failed to parse map: %v", err)
	}
	w, err := New("test", grid)
	if err != nil {
		t.Fatalf("Failed to create world: %v", err)
	}
	return w
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantErr bool
	}{
		{"valid", []string{"**E**", "*   *", "* @ *", "*****"}, false},
		{"no entrance", []string{"*****", "*   *", "* @ *", "*****"}, true},
		{"two entrances", []string{"**E**", "E   *", "* @ *", "*****"}, true},
		{"no object", []string{"**E**", "*   *", "*   *", "*****"}, true},
		{"two objects", []string{"**E**", "* H *", "* @ *", "*****"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := ParseLines(tt.lines)
			if err != nil {
				t.Fatalf("Failed to parse map: %v", err)
			}
			_, err = New("test", grid)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("Expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestNew_EmptyGrid(t *testing.T) {
	if _, err := New("empty", NewGrid(nil)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty grid, got %v", err)
	}
}

func TestParseLines(t *testing.T) {
	grid, err := ParseLines([]string{"*E*", "", "* @*", "X"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if grid.Rows() != 3 || grid.Cols() != 4 {
		t.Fatalf("Expected 3x4 grid, got %dx%d", grid.Rows(), grid.Cols())
	}
	if got := grid.At(Position{Row: 0, Col: 3}); got != Wall {
		t.Errorf("Expected padded cell to be wall, got %s", got)
	}
	if got := grid.At(Position{Row: 2, Col: 2}); got != Wall {
		t.Errorf("Expected padded cell on short row to be wall, got %s", got)
	}
	if got := grid.At(Position{Row: 1, Col: 2}); got != Object {
		t.Errorf("Expected object at (1,2), got %s", got)
	}

	if _, err := ParseLines([]string{"*E*", "*#*"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown character, got %v", err)
	}
	if _, err := ParseLines([]string{"", "\r", ""}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty map, got %v", err)
	}
}

func TestParseLines_OpenRow(t *testing.T) {
	grid, err := ParseLines([]string{"E   ", "    ", "   @", ""})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if grid.Rows() != 3 || grid.Cols() != 4 {
		t.Fatalf("Expected 3x4 grid, got %dx%d", grid.Rows(), grid.Cols())
	}
	for col := 0; col < 4; col++ {
		if got := grid.At(Position{Row: 1, Col: col}); got != Open {
			t.Errorf("Expected open cell at (1,%d), got %s", col, got)
		}
	}
	if got := grid.At(Position{Row: 2, Col: 3}); got != Object {
		t.Errorf("Expected object to stay at (2,3), got %s", got)
	}
}

func TestInitialOrientation(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Orientation
	}{
		{"top row", []string{"*E*", "* *", "*@*"}, South},
		{"bottom row", []string{"*@*", "* *", "*E*"}, North},
		{"left column", []string{"***", "E @", "***"}, East},
		{"right column", []string{"***", "@ E", "***"}, West},
		{"top left corner", []string{"E @", "***"}, South},
		{"bottom right corner", []string{"***", "@ E"}, North},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mustWorld(t, tt.lines...)
			if got := w.State().Orientation; got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSensorOffsets(t *testing.T) {
	want := map[Orientation][3]Position{
		North: {{-1, -1}, {-1, 0}, {-1, 1}},
		East:  {{-1, 1}, {0, 1}, {1, 1}},
		South: {{1, 1}, {1, 0}, {1, -1}},
		West:  {{1, -1}, {0, -1}, {-1, -1}},
	}
	for o, offsets := range want {
		if got := SensorOffsets(o); got != offsets {
			t.Errorf("%s: expected %v, got %v", o, offsets, got)
		}
	}
}

func TestSense(t *testing.T) {
	w := mustWorld(t,
		"**E**",
		"*   *",
		"* @ *",
		"*****",
	)

	// At the entrance facing South: left is (1,3), front (1,2), right (1,1)
	r := w.Sense()
	if r.Left != Open || r.Front != Open || r.Right != Open {
		t.Errorf("Unexpected readings at entrance: %+v", r)
	}

	if err := w.Execute(Advance); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	r = w.Sense()
	if r.Front != Object {
		t.Errorf("Expected object in front, got %s", r.Front)
	}
	if r.Left != Open || r.Right != Open {
		t.Errorf("Expected open diagonals, got %+v", r)
	}

	// Facing North from (1,2): front is the entrance, which reads as Open
	w.Execute(Rotate)
	w.Execute(Rotate)
	r = w.Sense()
	if r.Front != Open {
		t.Errorf("Expected entrance to read as open, got %s", r.Front)
	}
	if r.Left != Wall || r.Right != Wall {
		t.Errorf("Expected walls beside the entrance, got %+v", r)
	}
}

func TestSense_OffGridReadsWall(t *testing.T) {
	w := mustWorld(t, "E @")
	// Single row: top row wins, agent faces South off the grid
	r := w.Sense()
	for i, v := range r.Values() {
		if v != Wall {
			t.Errorf("Reading %d: expected wall off-grid, got %s", i, v)
		}
	}
}

func TestAdvance_CollisionLeavesStateUnchanged(t *testing.T) {
	w := mustWorld(t,
		"**E**",
		"*   *",
		"* @ *",
		"*****",
	)
	w.Execute(Rotate) // West, facing (0,1) which is a wall
	before := w.State()

	err := w.Execute(Advance)
	if !errors.Is(err, ErrCollision) {
		t.Fatalf("Expected ErrCollision, got %v", err)
	}
	if w.State() != before {
		t.Errorf("State changed after collision: %+v -> %+v", before, w.State())
	}

	// Rotate back to North: off the grid
	w.Execute(Rotate)
	if err := w.Execute(Advance); !errors.Is(err, ErrCollision) {
		t.Errorf("Expected ErrCollision off the grid, got %v", err)
	}
	if w.State().Position != before.Position {
		t.Errorf("Position changed after off-grid collision")
	}
}

func TestRotate_FourTurnsCycle(t *testing.T) {
	w := mustWorld(t, "**E**", "*   *", "* @ *", "*****")
	start := w.State().Orientation
	seen := make(map[Orientation]bool)
	for i := 0; i < 4; i++ {
		if err := w.Execute(Rotate); err != nil {
			t.Fatalf("Rotate failed: %v", err)
		}
		seen[w.State().Orientation] = true
	}
	if w.State().Orientation != start {
		t.Errorf("Expected orientation %s after four rotations, got %s", start, w.State().Orientation)
	}
	if len(seen) != 4 {
		t.Errorf("Expected four distinct orientations, got %d", len(seen))
	}
}

func TestPickupAndEject(t *testing.T) {
	w := mustWorld(t,
		"**E**",
		"*   *",
		"* @ *",
		"*****",
	)

	if err := w.Execute(Pickup); !errors.Is(err, ErrNoObjectAdjacent) {
		t.Errorf("Expected ErrNoObjectAdjacent, got %v", err)
	}
	if err := w.Execute(Eject); !errors.Is(err, ErrNotCarrying) {
		t.Errorf("Expected ErrNotCarrying, got %v", err)
	}

	w.Execute(Advance)
	if err := w.Execute(Pickup); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}
	if !w.State().Carrying {
		t.Error("Expected agent to be carrying")
	}
	if got := w.Snapshot().At(Position{Row: 2, Col: 2}); got != Open {
		t.Errorf("Expected object cell to become open, got %s", got)
	}
	if w.Sense().Front != Open {
		t.Errorf("Expected front to read open after pickup")
	}

	// (1,2) is not on the border
	if err := w.Execute(Eject); !errors.Is(err, ErrNotAtExit) {
		t.Errorf("Expected ErrNotAtExit, got %v", err)
	}
	if !w.State().Carrying {
		t.Error("Failed eject must keep carrying flag")
	}

	w.Execute(Rotate)
	w.Execute(Rotate)
	if err := w.Execute(Advance); err != nil {
		t.Fatalf("Advance to entrance failed: %v", err)
	}
	if err := w.Execute(Eject); err != nil {
		t.Fatalf("Eject failed: %v", err)
	}
	if w.State().Carrying {
		t.Error("Expected carrying to be false after eject")
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	w := mustWorld(t, "**E**", "*   *", "* @ *", "*****")
	if err := w.Execute(Command('Z')); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestReset(t *testing.T) {
	w := mustWorld(t, "**E**", "*   *", "* @ *", "*****")
	start := w.State()
	w.Execute(Advance)
	w.Execute(Pickup)

	got := w.Reset()
	if got != start {
		t.Errorf("Expected %+v after reset, got %+v", start, got)
	}
	if w.Snapshot().At(Position{Row: 2, Col: 2}) != Object {
		t.Error("Expected object restored after reset")
	}
}

func TestRestore(t *testing.T) {
	w := mustWorld(t, "**E**", "*   *", "* @ *", "*****")
	grid := w.Snapshot()
	grid.Set(Position{Row: 2, Col: 2}, Open)
	agent := AgentState{Position: Position{Row: 1, Col: 1}, Orientation: East, Carrying: true}

	if err := w.Restore(grid, agent); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if w.State() != agent {
		t.Errorf("Expected %+v, got %+v", agent, w.State())
	}

	agent.Position = Position{Row: 0, Col: 0}
	if err := w.Restore(grid, agent); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for wall position, got %v", err)
	}
	if err := w.Restore(NewGrid([][]CellType{{Open}}), agent); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for mismatched grid, got %v", err)
	}
}

func TestRender(t *testing.T) {
	w := mustWorld(t, "*E*", "* *", "*@*")
	want := "*v*\n* *\n*@*\n"
	if got := w.Render(); got != want {
		t.Errorf("Expected render %q, got %q", want, got)
	}
}

func TestParseCommands(t *testing.T) {
	cmds, err := ParseCommands("A g, P e")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []Command{Advance, Rotate, Pickup, Eject}
	if len(cmds) != len(want) {
		t.Fatalf("Expected %d commands, got %d", len(want), len(cmds))
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("Command %d: expected %s, got %s", i, want[i], cmds[i])
		}
	}

	if _, err := ParseCommands("AX"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestOrientationString(t *testing.T) {
	for o := North; o <= West; o++ {
		back, err := ParseOrientation(o.String())
		if err != nil || back != o {
			t.Errorf("Round trip failed for %s: %v %v", o, back, err)
		}
	}
	if _, err := ParseOrientation("up"); err == nil {
		t.Error("Expected error for unknown orientation")
	}
}

func TestAgentStateJSON(t *testing.T) {
	state := AgentState{Position: Position{Row: 1, Col: 2}, Orientation: West, Carrying: true}
	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"orientation":"west"`) {
		t.Errorf("Expected orientation by name, got %s", data)
	}

	var back AgentState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != state {
		t.Errorf("Expected %+v, got %+v", state, back)
	}

	if err := json.Unmarshal([]byte(`{"orientation":"up"}`), &back); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := json.Marshal(AgentState{Orientation: Orientation(7)}); err == nil {
		t.Error("Expected an error for an out of range orientation")
	}
}
