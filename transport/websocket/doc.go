// Package websocket streams session updates to browser clients.
//
// A central Hub owns all connections, grouped by session ID. Clients connect
// with /ws?session=<id> and receive JSON messages:
//
//	{"session_id":"a1b2","event":"state_update","state":{...}}
//	{"session_id":"a1b2","event":"movement","data":{...mission event...}}
//
// Incoming frames are read only to keep the connection alive.
//
// Mission events reach the hub through Notifier, which never blocks: when
// the broadcast queue is full the message is dropped and logged.
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	m := mission.New(w, mission.WithNotifier(hub.Notifier(sessionID)))
package websocket
