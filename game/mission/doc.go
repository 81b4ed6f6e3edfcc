// Package mission runs a complete rescue: explore, collect, validate, return, eject.
//
// State machine:
//
//	idle -> exploring -> collecting -> validating -> returning -> ejecting -> done
//
// Any unrecovered error moves the mission to failed and is returned to the
// caller together with the partial Report.
//
// The return route is planned with A* on a snapshot of the real grid, not on
// the explorer's partial map, and leads to the entrance, which doubles as the
// exit. After a failed return the mission drops the object if it is already
// on the border, without hiding the original error.
//
// Collaborators are optional and injected with options:
//
//	m := mission.New(w,
//		mission.WithLogger(logger),
//		mission.WithNotifier(hub.Notifier(sessionID)),
//		mission.WithActivitySink(csvLog),
//	)
//	report, err := m.Run(ctx)
package mission
