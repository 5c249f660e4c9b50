package monitor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sortify/internal/logging"
)

// scheduleWindow is the acceptance window around a scheduled time of day.
// A schedule fires when now is within the window and the previous scan is
// older than the window, which prevents re-firing inside one acceptance
// interval.
const scheduleWindow = 60 * time.Second

// catchUpDays bounds how far back missed schedules are reconstructed.
const catchUpDays = 7

func (m *Monitor) schedulerLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.scheduleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkSchedules(ctx)
		}
	}
}

// checkSchedules fires at most one due schedule per tick. Malformed entries
// are logged and skipped for this tick only.
func (m *Monitor) checkSchedules(ctx context.Context) {
	now := m.now()

	m.mu.Lock()
	lastScan := m.lastScan
	m.mu.Unlock()

	for _, entry := range m.cfg.Scan.ScheduledTimes {
		hour, minute, err := parseScheduleEntry(entry)
		if err != nil {
			m.logger.Error("parse scheduled time", logging.Error(err), logging.String("entry", entry))
			continue
		}

		scheduled := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		diff := now.Sub(scheduled)
		if diff < 0 {
			diff = -diff
		}
		if diff >= scheduleWindow {
			continue
		}
		if !lastScan.IsZero() && now.Sub(lastScan) <= scheduleWindow {
			continue
		}

		m.logger.Info("running scheduled scan", logging.String("scheduled_for", scheduled.Format("15:04")))
		m.runScheduledScan(ctx)
		m.recordCompleted(scheduled)
		break
	}
}

// checkMissedSchedules runs once at scheduled-mode startup. It reconstructs
// every schedule instant of the past week that fell strictly between the
// last completed schedule and now, then collapses the whole backlog into a
// single catch-up scan.
func (m *Monitor) checkMissedSchedules(ctx context.Context) {
	if m.state == nil {
		return
	}
	lastCompleted := m.state.LastCompleted()
	if lastCompleted.IsZero() {
		// No baseline to reason from.
		return
	}

	now := m.now()
	var missed []time.Time
	for _, entry := range m.cfg.Scan.ScheduledTimes {
		hour, minute, err := parseScheduleEntry(entry)
		if err != nil {
			m.logger.Error("parse scheduled time", logging.Error(err), logging.String("entry", entry))
			continue
		}
		for daysAgo := 1; daysAgo <= catchUpDays; daysAgo++ {
			day := now.AddDate(0, 0, -daysAgo)
			scheduled := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
			if scheduled.After(lastCompleted) && scheduled.Before(now) && !m.state.Contains(scheduled) {
				missed = append(missed, scheduled)
			}
		}
	}

	if len(missed) == 0 {
		return
	}

	m.logger.Info("running catch-up scan", logging.Int("missed_schedules", len(missed)))
	m.runScheduledScan(ctx)
	if err := m.state.Append(missed...); err != nil {
		m.logger.Error("record missed schedules", logging.Error(err))
	}
}

func (m *Monitor) recordCompleted(scheduled time.Time) {
	if m.state == nil {
		return
	}
	if err := m.state.Append(scheduled); err != nil {
		m.logger.Error("record completed schedule", logging.Error(err))
	}
}

// parseScheduleEntry parses a 24-hour "HH:MM" entry.
func parseScheduleEntry(entry string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("schedule entry %q: expected HH:MM", entry)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("schedule entry %q: invalid hour", entry)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("schedule entry %q: invalid minute", entry)
	}
	return hour, minute, nil
}
