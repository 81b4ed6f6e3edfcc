package session

import (
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

var testLayout = []string{
	"**E**",
	"** **",
	"**@**",
	"*****",
}

func createTestGrid(t *testing.T) *world.Grid {
	t.Helper()
	grid, err := world.ParseLines(testLayout)
	if err != nil {
		t.Fatalf("Failed to parse test map: %v", err)
	}
	return grid
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	grid := createTestGrid(t)

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "test", grid)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.World == nil {
			t.Fatal("Expected world to be initialized")
		}
		if session.World.Name() != "test" || session.MapName != "test" {
			t.Errorf("Expected map name 'test'")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", grid)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got %q", session.ID)
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		if _, err := manager.Create("test-session", "test", grid); err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		if _, err := manager.Create("TEST-SESSION", "test", grid); err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid map", func(t *testing.T) {
		noObject, _ := world.ParseLines([]string{"*E*", "* *", "***"})
		if _, err := manager.Create("invalid-test", "broken", noObject); err == nil {
			t.Error("Expected error for invalid map")
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		if _, err := manager.Create("../etc", "test", grid); err == nil {
			t.Error("Expected error for path-like ID")
		}
	})
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	manager := NewManager()
	grid := createTestGrid(t)

	a, _ := manager.Create("a", "test", grid)
	b, _ := manager.Create("b", "test", grid)

	if err := a.World.Execute(world.Advance); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := a.World.Execute(world.Pickup); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}
	if b.World.State().Carrying || b.World.State().Position != (world.Position{Row: 0, Col: 2}) {
		t.Error("Commands on one session must not affect another")
	}
	if b.World.Snapshot().At(world.Position{Row: 2, Col: 2}) != world.Object {
		t.Error("Pickup on one session removed the object from another")
	}
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, _ := manager.Create("get-test", "test", createTestGrid(t))

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if session != created {
			t.Errorf("Expected the same session")
		}
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		if err != nil {
			t.Fatalf("Failed to get session with different case: %v", err)
		}
		if session.ID != created.ID {
			t.Errorf("Expected same session regardless of case")
		}
	})

	t.Run("get non-existent session", func(t *testing.T) {
		if _, err := manager.Get("non-existent"); err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	grid := createTestGrid(t)

	first, err := manager.GetOrCreate("new-session", "test", grid)
	if err != nil {
		t.Fatalf("Failed to get or create session: %v", err)
	}
	second, err := manager.GetOrCreate("new-session", "test", grid)
	if err != nil {
		t.Fatalf("Failed to get existing session: %v", err)
	}
	if first != second {
		t.Error("Expected GetOrCreate to return the existing session")
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	manager.Create("delete-test", "test", createTestGrid(t))

	if err := manager.Delete("DELETE-TEST"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := manager.Get("delete-test"); err != ErrSessionNotFound {
		t.Error("Expected session to be deleted")
	}
	if err := manager.Delete("non-existent"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("access", "test", createTestGrid(t))
	before := session.LastAccessedAt

	time.Sleep(5 * time.Millisecond)
	if err := manager.UpdateLastAccessed("ACCESS"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}
	if !session.LastAccessedAt.After(before) {
		t.Error("Expected last accessed time to advance")
	}
	if got, err := manager.LastAccessed("Access"); err != nil || !got.Equal(session.LastAccessedAt) {
		t.Errorf("Expected LastAccessed %v, got %v (%v)", session.LastAccessedAt, got, err)
	}
	if _, err := manager.LastAccessed("missing"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := manager.UpdateLastAccessed("missing"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	manager := NewManager()
	grid := createTestGrid(t)

	old, _ := manager.Create("old", "test", grid)
	manager.Create("fresh", "test", grid)
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	if removed := manager.CleanupExpiredSessions(time.Hour); removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 remaining session, got %d", manager.Count())
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Errorf("Fresh session should survive cleanup: %v", err)
	}
}

func TestManager_ConcurrentCreate(t *testing.T) {
	manager := NewManager()
	grid := createTestGrid(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.Create("", "test", grid); err != nil {
				t.Errorf("Concurrent create failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if manager.Count() != 50 {
		t.Errorf("Expected 50 sessions, got %d", manager.Count())
	}
	seen := make(map[string]bool)
	for _, s := range manager.List() {
		if seen[s.ID] {
			t.Errorf("Duplicate session ID %s", s.ID)
		}
		seen[s.ID] = true
	}
}
