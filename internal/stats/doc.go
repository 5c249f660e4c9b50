// Package stats persists a durable record of every sorted file and answers
// aggregate and time-windowed queries over that history.
//
// Storage is SQLite in WAL mode: the daemon's single writer appends records
// while CLI readers query the same database concurrently. A per-(date,
// category) summary table is maintained alongside the raw records to keep
// windowed queries cheap.
package stats
