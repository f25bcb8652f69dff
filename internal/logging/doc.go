// Package logging provides slog attribute helpers shared across the bridge.
//
// It centralizes attribute key names so log output stays queryable, and
// offers small utilities for logging credentials safely.
package logging
