package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

func writeMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_map.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write map: %v", err)
	}
	return path
}

func hasMessage(result ValidationResult, substr string) bool {
	for _, msg := range result.Errors {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateMap(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
		wantMsg   string
	}{
		{
			name:      "valid map",
			content:   "**E**\n** **\n**@**\n*****\n",
			wantValid: true,
			wantMsg:   "✓ Entrance: (0,2), heading south",
		},
		{
			name:      "windows line endings",
			content:   "**E**\r\n** **\r\n**@**\r\n",
			wantValid: true,
			wantMsg:   "✓ Connectivity: object reachable in 2 steps",
		},
		{
			name:      "dots as open cells",
			content:   "*****\n*@..E\n*****\n",
			wantValid: true,
			wantMsg:   "heading west",
		},
		{
			name:      "invalid character",
			content:   "**E**\n**#**\n**@**\n",
			wantValid: false,
			wantMsg:   "unexpected character '#'",
		},
		{
			name:      "missing entrance",
			content:   "*****\n** **\n**@**\n",
			wantValid: false,
			wantMsg:   "exactly 1 entrance (E), found 0",
		},
		{
			name:      "two objects",
			content:   "**E**\n*@ @*\n*****\n",
			wantValid: false,
			wantMsg:   "exactly 1 object (@), found 2",
		},
		{
			name:      "unreachable object",
			content:   "**E**\n** **\n*****\n**@**\n",
			wantValid: false,
			wantMsg:   "Connectivity failure",
		},
		{
			name:      "empty file",
			content:   "\n\n",
			wantValid: false,
			wantMsg:   "empty map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeMap(t, tt.content)
			result := validateMap(path)

			if result.Valid != tt.wantValid {
				t.Errorf("Expected valid=%v, got %v (%v)", tt.wantValid, result.Valid, result.Errors)
			}
			if !hasMessage(result, tt.wantMsg) {
				t.Errorf("Expected message containing %q, got %v", tt.wantMsg, result.Errors)
			}
			if result.File != "test_map.txt" {
				t.Errorf("Expected file name test_map.txt, got %s", result.File)
			}
		})
	}
}

func TestValidateMap_MissingFile(t *testing.T) {
	result := validateMap(filepath.Join(t.TempDir(), "nope.txt"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !hasMessage(result, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateMap_Warnings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"ragged rows", "**E**\n** *\n**@**\n", "⚠ Row 2 has width 4, expected 5"},
		{"interior entrance", "*****\n*E @*\n*****\n", "⚠ Entrance (1,1) is not on the grid border"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateMap(writeMap(t, tt.content))
			if !result.Valid {
				t.Errorf("Warnings should not invalidate the map: %v", result.Errors)
			}
			if !hasMessage(result, tt.wantMsg) {
				t.Errorf("Expected %q, got %v", tt.wantMsg, result.Errors)
			}
		})
	}
}

func TestValidateConnectivity(t *testing.T) {
	grid, err := world.ParseLines([]string{
		"**E***",
		"** * *",
		"**   *",
		"*** @*",
		"******",
	})
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}

	result := validateConnectivity(grid, world.Position{Row: 0, Col: 2}, world.Position{Row: 3, Col: 4})
	if !result.Valid {
		t.Fatalf("Expected object reachable, got %v", result.Errors)
	}
	if !hasMessage(result, "reachable in 5 steps") {
		t.Errorf("Expected step count, got %v", result.Errors)
	}

	result = validateConnectivity(grid, world.Position{Row: 0, Col: 2}, world.Position{Row: 0, Col: 0})
	if result.Valid {
		t.Error("Expected wall goal to fail")
	}
	if !hasMessage(result, "Cannot validate connectivity") {
		t.Errorf("Expected input error, got %v", result.Errors)
	}
}
