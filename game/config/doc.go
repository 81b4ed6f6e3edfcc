// Package config loads rescue maps and runtime settings.
//
// Maps are plain text files with a .txt extension in the maps directory:
//
//	* or X   wall
//	E        entrance, doubles as the exit
//	@ or H   the object to rescue
//	space .  open floor
//
// Blank lines are ignored and short rows are padded with walls. A map is
// valid when it has exactly one entrance and one object.
//
// Usage:
//
//	manager, err := config.NewManager("maps")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	grid, err := manager.LoadMap("warehouse")
//	maps, err := manager.ListMaps()
//
// The default map is "default" when present, otherwise the first valid map
// by name, otherwise a small builtin corridor.
//
// Settings come from an optional YAML file (rescuebot.yaml) and RESCUE_*
// environment variables, which take precedence:
//
//	maps_dir: maps
//	sessions_dir: sessions
//	logs_dir: logs
//	max_iterations: 500
//	scan_mode: full
//	session_ttl: 2h
package config
