package monitor

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sortify/internal/config"
	"sortify/internal/logging"
	"sortify/internal/sorter"
)

// Monitor owns the pending-file set and the schedule state machine. It is
// constructed around an immutable config snapshot; applying new settings
// means stopping, reconstructing, and starting again.
type Monitor struct {
	cfg    *config.Config
	sorter *sorter.Sorter
	state  *config.ScheduleState
	logger *slog.Logger

	// Loop cadences, shortened in tests.
	processInterval  time.Duration
	scheduleInterval time.Duration
	now              func() time.Time

	mu       sync.Mutex
	running  bool
	mode     string
	pending  map[string]time.Time
	lastScan time.Time
	source   ChangeSource
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// Serializes bulk sorts so a manual scan cannot race a scheduled one
	// on the conflict-resolution probe.
	scanMu sync.Mutex

	// newSource is swapped in tests to control change-source behavior.
	newSource func(*slog.Logger) ChangeSource
}

// New constructs a monitor. The schedule state may be nil in regular mode.
func New(cfg *config.Config, srt *sorter.Sorter, state *config.ScheduleState, logger *slog.Logger) *Monitor {
	return &Monitor{
		cfg:              cfg,
		sorter:           srt,
		state:            state,
		logger:           logging.NewComponentLogger(logger, "monitor"),
		processInterval:  time.Second,
		scheduleInterval: 30 * time.Second,
		now:              time.Now,
		pending:          make(map[string]time.Time),
		newSource: func(logger *slog.Logger) ChangeSource {
			return NewNotifySource(logger)
		},
	}
}

// Start launches the configured monitoring mode. Calling Start on a running
// monitor is a logged no-op.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Info("monitor already running")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mode = m.cfg.Scan.Mode
	m.running = true
	m.mu.Unlock()

	switch m.cfg.Scan.Mode {
	case config.ScanModeScheduled:
		m.wg.Add(1)
		go m.schedulerLoop(runCtx)
		if m.cfg.Scan.ScanWhenBackOnline {
			m.checkMissedSchedules(runCtx)
		}
	default:
		source := m.newSource(m.logger)
		if err := source.Start(m.cfg.Paths.SourceDir, m.observe); err != nil {
			m.logger.Warn("native notifications unavailable, falling back to polling",
				logging.Error(err))
			source = NewPollingSource(time.Duration(m.cfg.Scan.PollInterval)*time.Second, m.logger)
			if err := source.Start(m.cfg.Paths.SourceDir, m.observe); err != nil {
				cancel()
				m.mu.Lock()
				m.running = false
				m.cancel = nil
				m.mu.Unlock()
				return err
			}
		}

		// Stop may have run while the source was starting; installing the
		// source now would leak its watch goroutine past Stop's wait.
		m.mu.Lock()
		if !m.running {
			m.mu.Unlock()
			source.Stop()
			return nil
		}
		m.source = source
		m.wg.Add(1)
		m.mu.Unlock()

		go m.processLoop(runCtx)
	}

	m.logger.Info("monitor started", logging.String("mode", m.cfg.Scan.Mode))
	return nil
}

// Stop signals all loops to exit, unsubscribes from change notifications,
// and waits for background work to finish. Safe to call twice.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	source := m.source
	m.running = false
	m.cancel = nil
	m.source = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if source != nil {
		source.Stop()
	}
	m.wg.Wait()
	m.logger.Info("monitor stopped")
}

// IsRunning reports whether the monitor is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Mode returns the configured scan mode.
func (m *Monitor) Mode() string {
	return m.cfg.Scan.Mode
}

// PendingCount returns the number of files awaiting debounce expiry.
func (m *Monitor) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// ScanNow runs a manual scan. A running monitor delegates to the shared
// scheduled-scan routine so the manual trigger is subject to the same
// last-scan accounting; otherwise a one-off bulk sort runs without touching
// schedule state. A missing source folder yields (0, 0).
func (m *Monitor) ScanNow(ctx context.Context) (successCount, errorCount int) {
	if _, err := os.Stat(m.cfg.Paths.SourceDir); errors.Is(err, fs.ErrNotExist) {
		m.logger.Error("source folder not found", logging.String("dir", m.cfg.Paths.SourceDir))
		return 0, 0
	}

	if m.IsRunning() {
		return m.runScheduledScan(ctx)
	}
	return m.runBulkSort(ctx)
}

// observe is invoked by the change source for every created file. Files
// matching an exclusion substring are discarded; everything else enters the
// pending set. The first-seen time is never refreshed so the original
// arrival governs the debounce window even when the OS delivers duplicate
// events.
func (m *Monitor) observe(path string) {
	name := filepath.Base(path)
	for _, pattern := range m.cfg.Sorting.Exclusions {
		if pattern != "" && strings.Contains(name, pattern) {
			return
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[path]; !ok {
		m.pending[path] = m.now()
		m.logger.Info("new file detected", logging.String("path", path))
	}
}

func (m *Monitor) processLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.processInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.processPending(ctx)
		}
	}
}

// processPending sorts every pending entry older than the debounce delay.
// Entries are removed after one attempt regardless of the outcome; files
// that vanished or sit at or below the size floor are dropped as incomplete
// downloads.
func (m *Monitor) processPending(ctx context.Context) {
	delay := time.Duration(m.cfg.Sorting.SortDelay) * time.Second
	now := m.now()

	m.mu.Lock()
	var due []string
	for path, firstSeen := range m.pending {
		if now.Sub(firstSeen) > delay {
			due = append(due, path)
		}
	}
	m.mu.Unlock()

	for _, path := range due {
		info, err := os.Stat(path)
		if err == nil && info.Size() > m.cfg.Sorting.MinFileSize {
			if _, sortErr := m.sorter.Sort(ctx, path); sortErr != nil && !errors.Is(sortErr, sorter.ErrNotFound) {
				m.logger.Error("sort pending file", logging.Error(sortErr), logging.String("path", path))
			}
		}

		m.mu.Lock()
		delete(m.pending, path)
		m.mu.Unlock()
	}
}

// runBulkSort performs one directory-wide sort. Bulk sorts are mutually
// exclusive across scheduled, catch-up, and manual triggers.
func (m *Monitor) runBulkSort(ctx context.Context) (int, int) {
	m.scanMu.Lock()
	defer m.scanMu.Unlock()

	scanID := uuid.NewString()
	m.logger.Info("bulk sort started",
		logging.String(logging.FieldScanID, scanID),
		logging.String("dir", m.cfg.Paths.SourceDir),
	)
	success, errs := m.sorter.SortDirectory(ctx, m.cfg.Paths.SourceDir)
	m.logger.Info("bulk sort finished",
		logging.String(logging.FieldScanID, scanID),
		logging.Int("sorted", success),
		logging.Int("errors", errs),
	)
	return success, errs
}

// runScheduledScan is the shared routine behind scheduled, catch-up, and
// manual-while-running scans: one bulk sort plus last-scan bookkeeping.
func (m *Monitor) runScheduledScan(ctx context.Context) (int, int) {
	success, errs := m.runBulkSort(ctx)
	m.mu.Lock()
	m.lastScan = m.now()
	m.mu.Unlock()
	return success, errs
}
