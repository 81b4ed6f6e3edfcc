package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *service.StateView {
	return &service.StateView{
		MapName:  "default",
		Rows:     3,
		Cols:     3,
		Agent:    world.AgentState{Position: world.Position{Row: 1, Col: 1}},
		Heading:  "north",
		Readings: world.Readings{Left: world.Wall, Front: world.Entrance, Right: world.Wall},
		Grid:     []string{"*E*", "*@*", "***"},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]string
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", response["status"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"plain body", http.StatusInternalServerError, "Internal Server Error", "API error: 500"},
		{"json error", http.StatusNotFound, `{"error":"not found: session \"zz\""}`, `not found: session "zz"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
			if err == nil {
				t.Fatal("Expected error")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Expected %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestClient_createSession(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{ID: "a1b2", MapName: "maze", State: sampleState()})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(),
		callRequest("create_session", map[string]any{"map_id": "maze"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "a1b2") {
		t.Errorf("Expected session ID in result, got: %s", text)
	}
	if !strings.Contains(text, "*@*") {
		t.Errorf("Expected grid in result, got: %s", text)
	}
	if gotBody["map_id"] != "maze" {
		t.Errorf("Expected map_id maze in request, got %v", gotBody)
	}
}

func TestClient_execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/a1b2/commands" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["commands"] != "AGE" {
			t.Errorf("Expected commands AGE, got %q", req["commands"])
		}

		json.NewEncoder(w).Encode(service.CommandResult{
			Requested: 3,
			Executed:  2,
			StoppedOn: 3,
			Error:     world.ErrNotCarrying.Error(),
			Steps: []service.StepInfo{
				{Idx: 1, Command: "A", Success: true},
				{Idx: 2, Command: "G", Success: true},
				{Idx: 3, Command: "E", Error: world.ErrNotCarrying.Error()},
			},
			State: sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleExecute(context.Background(), callRequest("execute", map[string]any{
		"session_id": "a1b2",
		"commands":   "AGE",
		"intent":     "walk in and try to eject",
	}))
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Stopped on command 3", "Executed 2/3", "not carrying"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_findPath(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"valid goal", map[string]any{"session_id": "a1b2", "row": float64(0), "col": float64(1)}, false},
		{"missing col", map[string]any{"session_id": "a1b2", "row": float64(0)}, true},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var goal world.Position
		json.NewDecoder(r.Body).Decode(&goal)
		json.NewEncoder(w).Encode(service.PathResult{
			Start: world.Position{Row: 1, Col: 1},
			Goal:  goal,
			Path:  []world.Position{{Row: 1, Col: 1}, goal},
			Steps: 1,
		})
	}))
	defer server.Close()
	client := NewClient(server.URL)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := client.handleFindPath(context.Background(), callRequest("find_path", tt.args))
			if err != nil {
				t.Fatalf("find_path failed: %v", err)
			}
			if result.IsError != tt.wantErr {
				t.Fatalf("Expected IsError=%v, got %v", tt.wantErr, result.IsError)
			}
			if !tt.wantErr {
				text := resultText(t, result)
				if !strings.Contains(text, "(1,1) → (0,1)") {
					t.Errorf("Expected route in result, got: %s", text)
				}
			}
		})
	}
}

func TestFormatMissionResult(t *testing.T) {
	tests := []struct {
		name    string
		summary *service.Summary
		want    []string
	}{
		{
			name:    "success",
			summary: &service.Summary{ID: "m1", State: mission.StateDone, Sequence: "GGGGAPGGAE", Commands: 10, ReturnLen: 1},
			want:    []string{"Mission m1 complete", "GGGGAPGGAE", "Return route: 1 steps"},
		},
		{
			name: "failure",
			summary: &service.Summary{
				ID:       "m2",
				State:    mission.StateFailed,
				FailedIn: mission.StateExploring,
				Error:    "object not found",
			},
			want: []string{"failed while exploring", "object not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := formatMissionResult(&service.MissionResult{Summary: tt.summary, State: sampleState()})
			for _, want := range tt.want {
				if !strings.Contains(text, want) {
					t.Errorf("Expected %q in:\n%s", want, text)
				}
			}
		})
	}
}

func TestFormatState(t *testing.T) {
	state := sampleState()
	state.Agent.Carrying = true

	text := formatState(state)
	for _, want := range []string{"default (3x3)", "facing north", "carrying the object", "front=entrance", "*E*\n*@*\n***\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}
}

func TestClient_handleInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleInstructions(context.Background(), callRequest("rescue_instructions", nil))
	if err != nil {
		t.Fatalf("instructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"MISSION OBJECTIVE", "COMMANDS", "SENSORS", "A* on the known map"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in instructions", want)
		}
	}
}
