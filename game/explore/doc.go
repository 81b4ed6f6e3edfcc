// Package explore finds the object using only the agent's proximity sensors.
//
// The Explorer walks the maze depth-first. Its stack holds the path from the
// entrance to the agent; at each cell it maps the neighbours, prefers the
// unvisited free neighbour ahead, then right, then left, and backtracks when
// none is left. Readings are accumulated in a KnownMap.
//
// Two scan modes are available:
//   - ScanFull turns through all four headings on the first visit of a cell
//   - ScanLazy only turns toward neighbours it has not observed yet
//
// Running out of cells or out of the iteration budget is reported through
// Result.Outcome, not as an error.
package explore
