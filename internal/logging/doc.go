// Package logging assembles the structured slog loggers used across
// sortify components.
//
// It centralizes level and format plumbing and exposes attribute helpers
// plus a no-op logger so wiring code and tests never hand-roll slog setup.
package logging
