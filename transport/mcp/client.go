package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Missions on large maps can take a while
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

const serverInstructions = `Rescue Robot - MCP Interface

This is a thin client that proxies all requests to the REST API server.

MISSION OBJECTIVE:
The robot (^ > v <) starts at the cave entrance (E). It must find the trapped object (@),
pick it up, carry it back to the entrance and eject it outside the grid.

AVAILABLE TOOLS:
- create_session: Create a new rescue session on a map
- list_sessions / get_session: Inspect sessions
- get_state: Current grid, pose and readings
- sense: Left, front and right readings at the current pose
- execute: Run manual commands (A=advance, G=rotate clockwise, P=pickup, E=eject)
- run_mission: Let the robot explore, collect and return on its own
- find_path: Shortest route from the robot to a cell
- reset: Restore the initial layout
- list_maps / get_map: Available maps
- rescue_instructions: Full rules

NOTE: The 'intent' parameter on execute serves as rubber duck debugging - explain your reasoning!`

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rescue Robot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	c.registerTools()
}

func sessionOnly(description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"session_id": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		Required: []string{"session_id"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new rescue session with optional map selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"map_id": map[string]any{
					"type":        "string",
					"description": "Name of the map to use (optional, see list_maps)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active rescue sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session, including its last mission",
		InputSchema: sessionOnly("Session ID to retrieve"),
	}, c.handleGetSession)

	// Agent operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_state",
		Description: "Get the current grid, robot pose and sensor readings",
		InputSchema: sessionOnly("Session ID"),
	}, c.handleGetState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "sense",
		Description: "Read the left, front and right sensors",
		InputSchema: sessionOnly("Session ID"),
	}, c.handleSense)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "execute",
		Description: "Execute manual commands. Stops at the first command that fails.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": map[string]any{
					"type":        "string",
					"description": "Session ID",
				},
				"commands": map[string]any{
					"type":        "string",
					"description": "Command letters, e.g. \"AGAP\" (A=advance, G=rotate clockwise, P=pickup, E=eject)",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of the intent behind these commands (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "commands"},
		},
	}, c.handleExecute)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_mission",
		Description: "Reset the session and run the autonomous rescue mission",
		InputSchema: sessionOnly("Session ID"),
	}, c.handleRunMission)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Plan the shortest route from the robot to a cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": map[string]any{
					"type":        "string",
					"description": "Session ID",
				},
				"row": map[string]any{
					"type":        "integer",
					"description": "Goal row (0-based)",
				},
				"col": map[string]any{
					"type":        "integer",
					"description": "Goal column (0-based)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleFindPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset",
		Description: "Reset the session to its initial layout",
		InputSchema: sessionOnly("Session ID"),
	}, c.handleReset)

	// Maps
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List available maps",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListMaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_map",
		Description: "Show the layout of a map",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"map_id": map[string]any{
					"type":        "string",
					"description": "Map name",
				},
			},
			Required: []string{"map_id"},
		},
	}, c.handleGetMap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rescue_instructions",
		Description: "Get the complete rules of the rescue mission",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]any {
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		return args
	}
	return map[string]any{}
}

func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mapID, _ := arguments(request)["map_id"].(string)

	body := map[string]string{}
	if mapID != "" {
		body["map_id"] = mapID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nMap: %s\n", session.ID, session.MapName)
	if session.State != nil {
		result += "\n" + formatState(session.State)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Map: %s, Created: %s)\n",
			s.ID, s.MapName, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state service.StateView
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatState(&state)), nil
}

func (c *Client) handleSense(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var res service.SenseResult
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/sense", sessionID), nil, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Position: %s facing %s\nReadings: %s\nFront cell: %s\n",
		res.Agent.Position, res.Agent.Orientation, formatReadings(res.Readings), res.Front)
	if res.Safety != "" {
		result += fmt.Sprintf("⚠️ %s\n", res.Safety)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	commands, _ := args["commands"].(string)

	// Intent is only there to make the caller explain itself
	_, _ = args["intent"].(string)

	var result service.CommandResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/commands", sessionID),
		map[string]string{"commands": commands}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCommandResult(&result)), nil
}

func (c *Client) handleRunMission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.MissionResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/mission", sessionID), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMissionResult(&result)), nil
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	var result service.PathResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/path", sessionID),
		world.Position{Row: row, Col: col}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPath(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state service.StateView
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/reset", sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Session reset\n\n" + formatState(&state)), nil
}

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []service.MapInfo
	if err := c.apiCall(ctx, "GET", "/api/maps", nil, &maps); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Maps:\n\n"
	for _, m := range maps {
		result += fmt.Sprintf("• %s\n  Grid: %dx%d, Entrance: %s, Object: %s, Open cells: %d\n\n",
			m.MapID, m.Rows, m.Cols, m.Entrance, m.Object, m.Open)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mapID, _ := arguments(request)["map_id"].(string)

	var detail service.MapDetail
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/maps/%s", mapID), nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	if detail.Info != nil {
		fmt.Fprintf(&b, "Map %s (%dx%d)\n\n", detail.Info.MapID, detail.Info.Rows, detail.Info.Cols)
	}
	for _, line := range detail.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🤖 Rescue Robot - Complete Instructions

MISSION OBJECTIVE:
Find the object trapped in the cave, bring it back to the entrance and eject it outside.

GRID LEGEND:
• * = Wall
• (space) = Open cell
• E = Entrance, always on the border
• @ = Object to rescue (H is accepted in map files)
• ^ > v < = Robot, drawn by heading (the robot starts on the entrance)

COMMANDS:
• A = Advance one cell in the facing direction. Fails on walls and outside the grid.
• G = Rotate 90° clockwise (north → east → south → west).
• P = Pick up the object in the front cell.
• E = Eject the carried object. Only works on a border cell facing outside.

SENSORS:
The robot reads the left, front and right cells relative to its heading.
Readings are one of: wall, open, entrance, object. Cells outside the grid read as wall.

AUTONOMOUS MISSION (run_mission):
1. Exploring: depth-first search that records every reading on a known map and
   backtracks along its own trail when all neighbours are visited.
2. Collecting: once the object is in front, the robot picks it up.
3. Validating: readings are checked for sensor faults and enclosure.
4. Returning: A* on the known map from the pickup cell back to the entrance.
5. Ejecting: rotate to face outside and eject.

SAFETY:
The mission aborts when the robot is enclosed on all sides, when a reading is
missing or when the object cannot be found.

STRATEGY TIPS:
1. Call sense before advancing into unknown territory
2. Use find_path to plan manual routes
3. get_session shows the summary of the last mission`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nMap: %s\nCreated: %s\nLast accessed: %s\n",
		session.ID, session.MapName,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if m := session.LastMission; m != nil {
		result += fmt.Sprintf("\nLast mission %s: %s", m.ID, m.State)
		if m.FailedIn != "" {
			result += fmt.Sprintf(" (failed while %s: %s)", m.FailedIn, m.Error)
		}
		result += fmt.Sprintf("\nSequence: %s\n", m.Sequence)
	}
	if session.State != nil {
		result += "\n" + formatState(session.State)
	}
	return result
}

func formatReadings(r world.Readings) string {
	return fmt.Sprintf("left=%s front=%s right=%s", r.Left, r.Front, r.Right)
}

func formatState(state *service.StateView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Map: %s (%dx%d)\n", state.MapName, state.Rows, state.Cols)
	fmt.Fprintf(&b, "Robot: %s facing %s", state.Agent.Position, state.Heading)
	if state.Agent.Carrying {
		b.WriteString(", carrying the object")
	}
	fmt.Fprintf(&b, "\nReadings: %s\n\n", formatReadings(state.Readings))

	render := state.Render
	if render == "" {
		render = strings.Join(state.Grid, "\n")
	}
	b.WriteString(render)
	if !strings.HasSuffix(render, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

func formatCommandResult(result *service.CommandResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✅ Executed %d/%d commands\n", result.Executed, result.Requested)
	} else {
		fmt.Fprintf(&b, "❌ Stopped on command %d: %s\n", result.StoppedOn, result.Error)
		fmt.Fprintf(&b, "Executed %d/%d commands\n", result.Executed, result.Requested)
	}
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d commands\n", result.Limit)
	}

	for _, step := range result.Steps {
		status := "ok"
		if !step.Success {
			status = "failed: " + step.Error
		}
		fmt.Fprintf(&b, "%d. %s %s → %s %s\n", step.Idx, step.Command,
			step.Before.Position, step.After.Position, status)
	}

	if result.State != nil {
		b.WriteString("\n")
		b.WriteString(formatState(result.State))
	}
	return b.String()
}

func formatMissionResult(result *service.MissionResult) string {
	var b strings.Builder
	if s := result.Summary; s != nil {
		if s.Error == "" {
			fmt.Fprintf(&b, "🎉 Mission %s complete\n", s.ID)
		} else {
			fmt.Fprintf(&b, "❌ Mission %s failed while %s: %s\n", s.ID, s.FailedIn, s.Error)
		}
		fmt.Fprintf(&b, "Commands: %d (%s)\n", s.Commands, s.Sequence)
		fmt.Fprintf(&b, "Exploration: %d iterations, %d backtracks\n", s.Iterations, s.Backtracks)
		if s.ReturnLen > 0 {
			fmt.Fprintf(&b, "Return route: %d steps\n", s.ReturnLen)
		}
	}
	if result.LogPath != "" {
		fmt.Fprintf(&b, "Activity log: %s\n", result.LogPath)
	}
	if result.State != nil {
		b.WriteString("\n")
		b.WriteString(formatState(result.State))
	}
	return b.String()
}

func formatPath(result *service.PathResult) string {
	cells := make([]string, len(result.Path))
	for i, p := range result.Path {
		cells[i] = p.String()
	}
	return fmt.Sprintf("Route %s → %s: %d steps (%d cells expanded)\n%s\n",
		result.Start, result.Goal, result.Steps, result.Expanded, strings.Join(cells, " → "))
}
