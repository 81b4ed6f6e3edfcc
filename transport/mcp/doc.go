// Package mcp provides a Model Context Protocol server for the rescue robot.
//
// The server is a thin client: every tool call is proxied to the REST API,
// so the MCP process holds no state of its own.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session management
//   - get_state, sense: inspect the world
//   - execute: run manual A/G/P/E commands
//   - run_mission: autonomous explore, collect and return
//   - find_path: A* route from the robot to a cell
//   - reset: restore the initial layout
//   - list_maps, get_map: available maps
//   - rescue_instructions: the full rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
