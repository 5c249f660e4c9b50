// Package monitor watches the source directory and drives the sorter.
//
// Two modes exist: event mode subscribes to directory change notifications
// and debounces arrivals before sorting them one at a time; scheduled mode
// wakes periodically and runs a full bulk sort when a configured time of day
// comes due, including a single catch-up scan for schedules missed while
// offline. Manual scans share the same bulk-sort routine.
package monitor
