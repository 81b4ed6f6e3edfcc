// Package api provides HTTP REST API handlers for the rescue robot.
//
// The api package implements:
//   - Session management endpoints
//   - Manual command execution and sensing
//   - Autonomous mission runs
//   - Route planning on the session grid
//   - Map listing and inspection
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"map_id": "..."} or ?map=)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Agent Operations:
//   - GET /api/sessions/{id}/state - Current world state
//   - GET /api/sessions/{id}/sense - Left, front and right readings
//   - POST /api/sessions/{id}/commands - Execute {"commands": "AGAP"}
//   - POST /api/sessions/{id}/mission - Run the full rescue mission
//   - POST /api/sessions/{id}/path - Plan a route to {"row": r, "col": c}
//   - POST /api/sessions/{id}/reset - Restore the initial layout
//
// Maps:
//   - GET /api/maps - List available maps
//   - GET /api/maps/{name} - Map layout and summary
//
// Misc:
//   - GET /api/health - Liveness check
//   - GET /metrics - Prometheus metrics, when configured
//   - GET /ws?session={id} - WebSocket state updates
//
// Error Handling:
//
// Errors are returned as JSON: {"error": "message"}. Unknown sessions and
// maps map to 404, invalid commands or goals to 400, an unreachable goal
// to 422 and anything else to 500.
package api
