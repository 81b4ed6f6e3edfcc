// Package activity writes the per-command CSV activity log.
//
// Each row holds the command, the three sensor readings after it ran and the
// compartment state ("loaded" or "empty"). START, INFO, ERROR and ALARM rows
// mark session events. CSVLog implements mission.ActivitySink.
package activity
