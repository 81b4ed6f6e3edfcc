// Command analyze prints quick, human-readable heuristics about the map
// files in a maps directory. It summarizes dimensions, free cells, entrance
// and object positions, the shortest entrance to object route, the farthest
// reachable cell, dead ends and border exits, and highlights open cells the
// robot can never reach.
//
// Usage: analyze [maps-dir]   (defaults to ./maps)
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/rescuebot/game/config"
	"github.com/wricardo/mcp-training/rescuebot/game/pathfind"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// Analysis holds the heuristics computed for one map
type Analysis struct {
	Name        string
	Rows, Cols  int
	FreeCells   int
	Entrance    world.Position
	Heading     world.Orientation
	Object      world.Position
	RouteLen    int // -1 when the object is unreachable
	Expanded    int
	Farthest    world.Position
	FarthestLen int // steps from the entrance to Farthest
	DeadEnds    []world.Position
	BorderExits []world.Position
	Unreachable []world.Position
}

func main() {
	mapsDir := "maps"
	if len(os.Args) > 1 {
		mapsDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(mapsDir, "*"+config.MapExt))
	if err != nil || len(files) == 0 {
		fmt.Printf("No map files found in %s\n", mapsDir)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		grid, err := config.ReadMapFile(file)
		if err != nil {
			fmt.Printf("Error reading map: %v\n", err)
			continue
		}
		a := analyzeGrid(strings.TrimSuffix(filepath.Base(file), config.MapExt), grid)
		printAnalysis(os.Stdout, a)
	}
}

func openNeighbours(g *world.Grid, p world.Position) int {
	n := 0
	for _, o := range []world.Orientation{world.North, world.East, world.South, world.West} {
		if g.At(p.Step(o)) != world.Wall {
			n++
		}
	}
	return n
}

// analyzeGrid expects a grid with one entrance and one object, as ReadMapFile guarantees
func analyzeGrid(name string, g *world.Grid) *Analysis {
	a := &Analysis{
		Name:     name,
		Rows:     g.Rows(),
		Cols:     g.Cols(),
		RouteLen: -1,
	}
	if ps := g.Find(world.Entrance); len(ps) > 0 {
		a.Entrance = ps[0]
		a.Heading = world.InitialOrientation(g, a.Entrance)
	}
	if ps := g.Find(world.Object); len(ps) > 0 {
		a.Object = ps[0]
	}

	planner := pathfind.NewPlanner()
	if path, err := planner.FindPath(g, a.Entrance, a.Object); err == nil {
		a.RouteLen = len(path) - 1
	}
	a.Expanded = planner.Expanded()

	dist := pathfind.Distances(g, a.Entrance)
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			p := world.Position{Row: row, Col: col}
			cell := g.At(p)
			if cell == world.Wall {
				continue
			}
			a.FreeCells++
			if g.OnBorder(p) {
				a.BorderExits = append(a.BorderExits, p)
			}
			if cell == world.Open && openNeighbours(g, p) == 1 {
				a.DeadEnds = append(a.DeadEnds, p)
			}
			d, ok := dist[p]
			if !ok {
				a.Unreachable = append(a.Unreachable, p)
			} else if d > a.FarthestLen {
				a.Farthest, a.FarthestLen = p, d
			}
		}
	}
	return a
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Rows, a.Cols)
	fmt.Fprintf(w, "Free Cells: %d\n", a.FreeCells)
	fmt.Fprintf(w, "Entrance: %s (heading %s)\n", a.Entrance, a.Heading)
	fmt.Fprintf(w, "Object: %s\n", a.Object)

	if a.RouteLen >= 0 {
		fmt.Fprintf(w, "✅ Shortest route: %d steps (%d cells expanded)\n", a.RouteLen, a.Expanded)
	} else {
		fmt.Fprintf(w, "⚠️  CRITICAL: object is unreachable from the entrance!\n")
	}

	if a.FarthestLen > 0 {
		fmt.Fprintf(w, "Farthest cell: %s at %d steps\n", a.Farthest, a.FarthestLen)
	}
	fmt.Fprintf(w, "Dead Ends: %d\n", len(a.DeadEnds))
	fmt.Fprintf(w, "Border Exits: %d\n", len(a.BorderExits))

	if len(a.Unreachable) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d free cells are unreachable from the entrance!\n", len(a.Unreachable))
		for i, p := range a.Unreachable {
			if i < 5 { // Show first 5 unreachable cells
				fmt.Fprintf(w, "   Unreachable: %s\n", p)
			}
		}
		if len(a.Unreachable) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(a.Unreachable)-5)
		}
	} else {
		fmt.Fprintf(w, "✅ All free cells are reachable from the entrance\n")
	}
}
