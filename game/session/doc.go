// Package session provides session management for rescue missions.
//
// Each session owns an independent world built from a map, so commands and
// missions in one session never affect another. The manager keeps sessions
// in memory under case-insensitive IDs and optionally mirrors them to disk
// through a SessionPersistence.
//
// Session Identifiers:
//
// Generated IDs are 4 hexadecimal characters from crypto/rand. Custom IDs
// may not contain path separators, dots or spaces.
//
// Persistence:
//
// FilePersistence writes one JSON file per session holding the map name,
// the agent state, the current grid and the last mission report. Loading
// rebuilds the world from the original map and then restores the saved
// grid and agent, so Reset still returns to the map's initial state.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", mapManager)
//	manager := session.NewManagerWithPersistence(persistence, session.WithLogger(logger))
//
//	sess, err := manager.Create("", "warehouse", grid)
//	sess, err = manager.Get(sessionID)
//
// Cleanup:
//
// CleanupExpiredSessions drops idle sessions from memory. Their files stay
// on disk and are reloaded on the next Get.
package session
