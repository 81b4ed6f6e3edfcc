// Package service provides the business logic layer of the rescue robot.
//
// MissionService is the single entry point used by every transport (REST,
// WebSocket, MCP and the CLI). It combines a SessionManager, which owns the
// per-session worlds, with a MapManager, which loads map files.
//
// Operations:
//
//   - Sessions: create on a map, get, list, delete
//   - Manual control: Sense the three readings, Execute a command string
//     such as "AGAP" (stops at the first failing command)
//   - RunMission: reset the world and run explore, collect, validate,
//     return and eject, storing the report on the session
//   - FindPath: A* from the agent to any free cell on the true grid
//   - Maps: list and load
//
// A failed mission is part of the MissionResult, not an error. Errors are
// reserved for unknown sessions or maps (ErrNotFound) and bad input
// (world.ErrInvalidInput).
//
// Usage:
//
//	svc := service.NewMissionService(sessionMgr, mapMgr,
//		service.WithLogger(logger),
//		service.WithNotifiers(hub.Notifier),
//		service.WithMetrics(metrics),
//		service.WithActivityLogs("logs"),
//	)
//	info, err := svc.CreateSession(ctx, "warehouse")
//	result, err := svc.RunMission(ctx, info.ID)
package service
