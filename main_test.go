package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rescuebot/game/activity"
	"github.com/wricardo/mcp-training/rescuebot/game/config"
	"github.com/wricardo/mcp-training/rescuebot/game/service"
)

const straightMap = "**E**\n** **\n**@**\n*****\n*****\n"

// testApp points every directory at a fresh temp dir
func testApp(t *testing.T, maps map[string]string) *app {
	t.Helper()
	root := t.TempDir()
	st := config.DefaultSettings()
	st.MapsDir = filepath.Join(root, "maps")
	st.SessionsDir = filepath.Join(root, "sessions")
	st.LogsDir = filepath.Join(root, "logs")

	if err := os.MkdirAll(st.MapsDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, layout := range maps {
		if err := os.WriteFile(filepath.Join(st.MapsDir, name+config.MapExt), []byte(layout), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return &app{settings: st, log: zap.NewNop()}
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Rescue Robot Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestNewApp(t *testing.T) {
	cmd := newApp(nil)

	want := map[string]bool{"serve": false, "stdio-mcp": false, "run": false, "version": false}
	for _, sub := range cmd.Commands {
		if _, ok := want[sub.Name]; ok {
			want[sub.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Missing subcommand %s", name)
		}
	}
	if cmd.Action == nil {
		t.Error("Root command should default to serving")
	}
}

func TestInitializeServices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := testApp(t, map[string]string{"default": straightMap})
	svcs, err := initializeServices(ctx, a)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	info, err := svcs.mission.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if info.MapName != "default" {
		t.Errorf("Expected default map, got %s", info.MapName)
	}
	if !svcs.persistence.Exists(info.ID) {
		t.Error("Expected session to be persisted")
	}

	res, err := svcs.mission.RunMission(ctx, info.ID)
	if err != nil {
		t.Fatalf("RunMission: %v", err)
	}
	if res.Summary.Sequence != "GGGGAPGGAE" {
		t.Errorf("Unexpected sequence %s", res.Summary.Sequence)
	}
	if res.LogPath == "" || !strings.HasPrefix(res.LogPath, a.settings.LogsDir) {
		t.Errorf("Expected activity log under %s, got %q", a.settings.LogsDir, res.LogPath)
	}
}

func TestInitializeServices_InvalidMapsDir(t *testing.T) {
	a := testApp(t, nil)
	a.settings.MapsDir = "/non/existent/path"

	if _, err := initializeServices(context.Background(), a); err == nil {
		t.Error("Expected error for non-existent maps directory")
	}
}

func TestInitializeServices_UnknownDefaultMap(t *testing.T) {
	a := testApp(t, map[string]string{"default": straightMap})
	a.settings.DefaultMap = "missing"

	_, err := initializeServices(context.Background(), a)
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestSyncWithFilesystem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := testApp(t, map[string]string{"default": straightMap})
	svcs, err := initializeServices(ctx, a)
	if err != nil {
		t.Fatal(err)
	}

	keep, _ := svcs.mission.CreateSession(ctx, "")
	drop, _ := svcs.mission.CreateSession(ctx, "")
	if err := svcs.persistence.Delete(drop.ID); err != nil {
		t.Fatal(err)
	}

	if pruned := syncWithFilesystem(a.log, svcs.sessions, svcs.persistence); pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
	if _, err := svcs.sessions.Get(keep.ID); err != nil {
		t.Errorf("Expected %s to survive: %v", keep.ID, err)
	}
	if svcs.sessions.Count() != 1 {
		t.Errorf("Expected 1 session in memory, got %d", svcs.sessions.Count())
	}
}

func TestRunLocal(t *testing.T) {
	a := testApp(t, map[string]string{"default": straightMap})

	var out bytes.Buffer
	if err := runLocal(context.Background(), a, "", true, &out); err != nil {
		t.Fatalf("runLocal: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Map default (5x5)", "Mission complete in 10 commands: GGGGAPGGAE", "Return route: 1 steps", "[exploring]", "Explored area:"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}

	logs, err := filepath.Glob(filepath.Join(a.settings.LogsDir, "local_default_*.csv"))
	if err != nil || len(logs) != 1 {
		t.Fatalf("Expected one activity log, got %v (%v)", logs, err)
	}
	f, err := os.Open(logs[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	stats, err := activity.ReadStats(f)
	if err != nil {
		t.Fatalf("ReadStats: %v", err)
	}
	if stats.Commands != 10 {
		t.Errorf("Expected 10 logged commands, got %d", stats.Commands)
	}
}

func TestRunLocal_MapFile(t *testing.T) {
	a := testApp(t, nil)
	path := filepath.Join(t.TempDir(), "sealed"+config.MapExt)
	if err := os.WriteFile(path, []byte("*E***\n* *@*\n*****\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := runLocal(context.Background(), a, path, false, &out)
	if err == nil {
		t.Fatal("Expected the sealed map to fail")
	}
	if !strings.Contains(out.String(), "Map sealed") {
		t.Errorf("Expected map name from file, got:\n%s", out.String())
	}
}
