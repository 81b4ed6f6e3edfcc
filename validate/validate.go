// Command validate provides a small CLI that validates rescue map files
// (*.txt) in a maps directory. It checks:
//   - Allowed characters (* X wall, space or . open, E entrance, @ or H object)
//   - Exactly one entrance (E) and one object (@)
//   - Rows of equal width (ragged rows are reported, they are padded with walls)
//   - The initial heading derived from the entrance
//   - Connectivity: the object is reachable from the entrance over open cells
//
// Usage: validate [maps-dir]   (defaults to ./maps)
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/rescuebot/game/pathfind"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateMap loads and validates a single map file
func validateMap(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}
	return validateLayout(result, strings.Split(string(data), "\n"))
}

// validateLayout runs every check over the raw map lines
func validateLayout(result ValidationResult, lines []string) ValidationResult {
	// Width consistency is checked on the raw lines, ParseLines pads them
	width := -1
	rowNum := 0
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		rowNum++
		if width == -1 {
			width = len([]rune(line))
		} else if n := len([]rune(line)); n != width {
			result.info("⚠ Row %d has width %d, expected %d (padded with walls)", rowNum, n, width)
		}
	}

	grid, err := world.ParseLines(lines)
	if err != nil {
		result.fail("Invalid layout: %v", trimInvalid(err))
		return result
	}

	entrances := grid.Find(world.Entrance)
	objects := grid.Find(world.Object)
	if len(entrances) != 1 {
		result.fail("Must have exactly 1 entrance (E), found %d", len(entrances))
	}
	if len(objects) != 1 {
		result.fail("Must have exactly 1 object (@), found %d", len(objects))
	}
	if !result.Valid {
		return result
	}

	entrance, object := entrances[0], objects[0]
	if !grid.OnBorder(entrance) {
		result.info("⚠ Entrance %s is not on the grid border", entrance)
	}

	// Connectivity validation
	conn := validateConnectivity(grid, entrance, object)
	if !conn.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, conn.Errors...)

	if result.Valid {
		result.info("✓ Grid: %dx%d", grid.Rows(), grid.Cols())
		result.info("✓ Entrance: %s, heading %s", entrance, world.InitialOrientation(grid, entrance))
		result.info("✓ Object: %s", object)
		result.info("✓ Open cells: %d", grid.Count(world.Open))
	}
	return result
}

func trimInvalid(err error) string {
	msg := err.Error()
	if errors.Is(err, world.ErrInvalidInput) {
		msg = strings.TrimPrefix(msg, world.ErrInvalidInput.Error()+": ")
	}
	return msg
}

// validateConnectivity ensures the object can be reached from the entrance
// using 4-directional movement over non-wall cells
func validateConnectivity(grid *world.Grid, entrance, object world.Position) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	path, err := pathfind.FindPath(grid, entrance, object)
	switch {
	case errors.Is(err, pathfind.ErrNoPath):
		reachable := pathfind.Reachable(grid, entrance)
		result.fail("Connectivity failure: object at %s unreachable from entrance %s (%d cells reachable)",
			object, entrance, len(reachable))
	case err != nil:
		result.fail("Cannot validate connectivity: %v", err)
	default:
		result.info("✓ Connectivity: object reachable in %d steps", len(path)-1)
	}
	return result
}

// main scans the maps directory for *.txt files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	mapsDir := "maps"
	if len(os.Args) > 1 {
		mapsDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(mapsDir, "*.txt"))
	if err != nil {
		fmt.Printf("Error finding map files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No map files found in %s\n", mapsDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateMap(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All maps are valid!")
	} else {
		fmt.Println("❌ Some maps have errors")
		os.Exit(1)
	}
}
