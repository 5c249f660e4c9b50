package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// maxCompletedSchedules bounds the persisted history of executed schedules.
const maxCompletedSchedules = 50

// ScheduleState persists the history of completed scheduled scans. The
// monitor appends entries and reads the most recent one for catch-up; this
// package owns the on-disk format.
type ScheduleState struct {
	path string

	mu        sync.Mutex
	completed []string
}

type scheduleStateFile struct {
	CompletedSchedules []string `json:"completed_schedules"`
}

// OpenScheduleState loads (or initializes) the schedule state stored in the
// config's log directory.
func OpenScheduleState(cfg *Config) (*ScheduleState, error) {
	path := filepath.Join(cfg.Paths.LogDir, "schedules.json")
	state := &ScheduleState{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, nil
		}
		return nil, fmt.Errorf("read schedule state: %w", err)
	}

	var file scheduleStateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schedule state: %w", err)
	}
	state.completed = file.CompletedSchedules
	return state, nil
}

// Completed returns a copy of the recorded schedule timestamps, oldest first.
func (s *ScheduleState) Completed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.completed))
	copy(out, s.completed)
	return out
}

// LastCompleted returns the most recent completed schedule, or the zero time
// when none has been recorded or the stored value does not parse.
func (s *ScheduleState) LastCompleted() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.completed) == 0 {
		return time.Time{}
	}
	last, err := time.Parse(time.RFC3339, s.completed[len(s.completed)-1])
	if err != nil {
		return time.Time{}
	}
	return last
}

// Contains reports whether the given schedule instant is already recorded.
func (s *ScheduleState) Contains(instant time.Time) bool {
	encoded := instant.Format(time.RFC3339)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.completed {
		if entry == encoded {
			return true
		}
	}
	return false
}

// Append records schedule instants as completed, dropping the oldest entries
// once the history exceeds its cap, and persists the result.
func (s *ScheduleState) Append(instants ...time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, instant := range instants {
		encoded := instant.Format(time.RFC3339)
		if s.containsLocked(encoded) {
			continue
		}
		s.completed = append(s.completed, encoded)
	}
	if len(s.completed) > maxCompletedSchedules {
		s.completed = s.completed[len(s.completed)-maxCompletedSchedules:]
	}
	return s.saveLocked()
}

func (s *ScheduleState) containsLocked(encoded string) bool {
	for _, entry := range s.completed {
		if entry == encoded {
			return true
		}
	}
	return false
}

func (s *ScheduleState) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create schedule state directory: %w", err)
	}
	data, err := json.MarshalIndent(scheduleStateFile{CompletedSchedules: s.completed}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedule state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write schedule state: %w", err)
	}
	return nil
}
