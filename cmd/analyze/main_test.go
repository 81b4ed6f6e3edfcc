package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wricardo/mcp-training/rescuebot/game/config"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

func mustGrid(t *testing.T, lines ...string) *world.Grid {
	t.Helper()
	g, err := world.ParseLines(lines)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}
	return g
}

func TestAnalyzeGrid(t *testing.T) {
	g := mustGrid(t,
		"**E***",
		"** * *",
		"**   *",
		"*** @*",
		"******",
	)

	got := analyzeGrid("builtin", g)
	want := &Analysis{
		Name:        "builtin",
		Rows:        5,
		Cols:        6,
		FreeCells:   8,
		Entrance:    world.Position{Row: 0, Col: 2},
		Heading:     world.South,
		Object:      world.Position{Row: 3, Col: 4},
		RouteLen:    5,
		Expanded:    got.Expanded,
		Farthest:    world.Position{Row: 1, Col: 4},
		FarthestLen: 5,
		DeadEnds:    []world.Position{{Row: 1, Col: 4}},
		BorderExits: []world.Position{{Row: 0, Col: 2}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analyzeGrid mismatch (-want +got):\n%s", diff)
	}
	if got.Expanded == 0 {
		t.Error("Expected the planner to expand cells")
	}
}

func TestAnalyzeGrid_Unreachable(t *testing.T) {
	g := mustGrid(t,
		"**E**",
		"** **",
		"*****",
		"*@  *",
		"*****",
	)

	a := analyzeGrid("split", g)
	if a.RouteLen != -1 {
		t.Errorf("Expected unreachable route, got %d", a.RouteLen)
	}
	if len(a.Unreachable) != 3 {
		t.Errorf("Expected 3 unreachable cells, got %v", a.Unreachable)
	}
	if len(a.DeadEnds) != 2 {
		t.Errorf("Expected 2 dead ends, got %v", a.DeadEnds)
	}
}

func TestPrintAnalysis(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "reachable",
			lines: []string{"**E**", "** **", "**@**", "*****"},
			want:  []string{"Grid Size: 4 x 5", "Free Cells: 3", "Entrance: (0,2) (heading south)", "Shortest route: 2 steps", "Farthest cell: (2,2) at 2 steps", "All free cells are reachable"},
		},
		{
			name:  "unreachable",
			lines: []string{"**E**", "*****", "**@**"},
			want:  []string{"CRITICAL: object is unreachable", "1 free cells are unreachable", "Unreachable: (2,2)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printAnalysis(&buf, analyzeGrid(tt.name, mustGrid(t, tt.lines...)))
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Expected %q in output:\n%s", want, out)
				}
			}
		})
	}
}

func TestAnalyzeMapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cave"+config.MapExt)
	if err := os.WriteFile(path, []byte("*E*\n* *\n*@*\n"), 0644); err != nil {
		t.Fatal(err)
	}

	grid, err := config.ReadMapFile(path)
	if err != nil {
		t.Fatalf("ReadMapFile: %v", err)
	}
	a := analyzeGrid("cave", grid)
	if a.RouteLen != 2 {
		t.Errorf("Expected route of 2 steps, got %d", a.RouteLen)
	}
	if a.FreeCells != 3 {
		t.Errorf("Expected 3 free cells, got %d", a.FreeCells)
	}
}
