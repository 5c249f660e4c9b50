// Package daemon coordinates the monitor and statistics store behind a
// single-instance lock and exposes the control surface served over IPC.
package daemon
