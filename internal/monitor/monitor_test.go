package monitor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sortify/internal/config"
	"sortify/internal/logging"
	"sortify/internal/sorter"
	"sortify/internal/testsupport"
)

func newTestMonitor(t *testing.T, cfg *config.Config, state *config.ScheduleState) *Monitor {
	t.Helper()
	srt := sorter.New(cfg, nil, logging.NewNop())
	return New(cfg, srt, state, logging.NewNop())
}

func setClock(m *Monitor, at time.Time) *time.Time {
	clock := at
	m.now = func() time.Time { return clock }
	return &clock
}

func sourceFileCount(t *testing.T, cfg *config.Config) int {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.SourceDir)
	if err != nil {
		t.Fatalf("read source dir: %v", err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count
}

func TestObserveFiltersExclusions(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithExclusions(".tmp", "partial"))
	m := newTestMonitor(t, cfg, nil)

	m.observe(filepath.Join(cfg.Paths.SourceDir, "report.pdf"))
	m.observe(filepath.Join(cfg.Paths.SourceDir, "download.tmp"))
	m.observe(filepath.Join(cfg.Paths.SourceDir, "movie.partial.mkv"))

	if got := m.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d, want 1", got)
	}
}

func TestObserveKeepsFirstSeenTime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	m := newTestMonitor(t, cfg, nil)
	start := time.Date(2026, time.August, 26, 10, 0, 0, 0, time.Local)
	clock := setClock(m, start)

	path := filepath.Join(cfg.Paths.SourceDir, "report.pdf")
	m.observe(path)
	*clock = start.Add(10 * time.Second)
	m.observe(path)

	m.mu.Lock()
	firstSeen := m.pending[path]
	m.mu.Unlock()
	if !firstSeen.Equal(start) {
		t.Fatalf("first-seen = %v, want original %v", firstSeen, start)
	}
}

func TestProcessPendingRespectsDebounce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Sorting.SortDelay = 5
	m := newTestMonitor(t, cfg, nil)
	start := time.Date(2026, time.August, 26, 10, 0, 0, 0, time.Local)
	clock := setClock(m, start)

	path := filepath.Join(cfg.Paths.SourceDir, "report.pdf")
	testsupport.WriteFile(t, path, 64)
	m.observe(path)

	m.processPending(context.Background())
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file moved before debounce expiry: %v", err)
	}
	if got := m.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d, want 1 while debouncing", got)
	}

	*clock = start.Add(6 * time.Second)
	m.processPending(context.Background())
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file not moved after debounce expiry: %v", err)
	}
	if got := m.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0 after processing", got)
	}
}

func TestProcessPendingDropsFilesAtOrBelowSizeFloor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Sorting.MinFileSize = 100
	m := newTestMonitor(t, cfg, nil)
	start := time.Date(2026, time.August, 26, 10, 0, 0, 0, time.Local)
	clock := setClock(m, start)

	atFloor := filepath.Join(cfg.Paths.SourceDir, "exact.pdf")
	above := filepath.Join(cfg.Paths.SourceDir, "bigger.pdf")
	testsupport.WriteFile(t, atFloor, 100)
	testsupport.WriteFile(t, above, 101)
	m.observe(atFloor)
	m.observe(above)

	*clock = start.Add(time.Second)
	m.processPending(context.Background())

	if _, err := os.Stat(atFloor); err != nil {
		t.Fatalf("file at the size floor should stay in place: %v", err)
	}
	if _, err := os.Stat(above); !os.IsNotExist(err) {
		t.Fatalf("file above the size floor should be moved: %v", err)
	}
	if got := m.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0", got)
	}
}

func TestProcessPendingDropsVanishedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	m := newTestMonitor(t, cfg, nil)
	start := time.Date(2026, time.August, 26, 10, 0, 0, 0, time.Local)
	clock := setClock(m, start)

	path := filepath.Join(cfg.Paths.SourceDir, "ghost.pdf")
	m.observe(path)

	*clock = start.Add(time.Second)
	m.processPending(context.Background())
	if got := m.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0 after vanished file", got)
	}
}

func TestScanNowMissingSourceDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.RemoveAll(cfg.Paths.SourceDir); err != nil {
		t.Fatalf("remove source dir: %v", err)
	}
	m := newTestMonitor(t, cfg, nil)

	success, errs := m.ScanNow(context.Background())
	if success != 0 || errs != 0 {
		t.Fatalf("ScanNow(missing source) = (%d, %d), want (0, 0)", success, errs)
	}
}

func TestScanNowStoppedMonitorLeavesScheduleState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	m := newTestMonitor(t, cfg, nil)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "a.pdf"), 16)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "b.jpg"), 16)

	success, errs := m.ScanNow(context.Background())
	if success != 2 || errs != 0 {
		t.Fatalf("ScanNow() = (%d, %d), want (2, 0)", success, errs)
	}

	m.mu.Lock()
	lastScan := m.lastScan
	m.mu.Unlock()
	if !lastScan.IsZero() {
		t.Fatalf("lastScan = %v, want zero for a stopped monitor", lastScan)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	m := newTestMonitor(t, cfg, nil)
	ctx := context.Background()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !m.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	m.Stop()
	if m.IsRunning() {
		t.Fatal("IsRunning() = true after Stop")
	}
	m.Stop()
}

// blockingSource parks inside Start until released, letting tests interleave
// Stop with a source that is still coming up.
type blockingSource struct {
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	stopped bool
}

func newBlockingSource() *blockingSource {
	return &blockingSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *blockingSource) Start(string, func(string)) error {
	close(s.started)
	<-s.release
	return nil
}

func (s *blockingSource) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *blockingSource) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func TestStopDuringSourceStartupDiscardsSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	m := newTestMonitor(t, cfg, nil)
	src := newBlockingSource()
	m.newSource = func(*slog.Logger) ChangeSource { return src }

	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()

	<-src.started
	m.Stop()
	close(src.release)

	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !src.wasStopped() {
		t.Fatal("source that finished starting after Stop was left running")
	}
	m.mu.Lock()
	installed := m.source
	m.mu.Unlock()
	if installed != nil {
		t.Fatal("source installed on a stopped monitor")
	}
	if m.IsRunning() {
		t.Fatal("IsRunning() = true after Stop")
	}
}

func TestRegularModeEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithCategories(config.Category{Name: "Images", Extensions: []string{".jpg"}}),
		testsupport.WithExclusions(".tmp"),
	)
	cfg.Sorting.MinFileSize = 100

	store := testsupport.MustOpenStore(t, cfg)
	srt := sorter.New(cfg, store, logging.NewNop())
	m := New(cfg, srt, nil, logging.NewNop())
	m.processInterval = 25 * time.Millisecond

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop()

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "skip.tmp"), 200)
	photo := filepath.Join(cfg.Paths.SourceDir, "photo.jpg")
	testsupport.WriteFile(t, photo, 200)

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(photo); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("photo.jpg was not sorted before the deadline")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.SourceDir, "skip.tmp")); err != nil {
		t.Fatalf("excluded file should remain in source: %v", err)
	}

	totals, err := store.TotalStats(context.Background())
	if err != nil {
		t.Fatalf("TotalStats() error = %v", err)
	}
	if totals.TotalFiles != 1 {
		t.Fatalf("TotalFiles = %d, want 1", totals.TotalFiles)
	}

	entries, err := store.RecentActivity(context.Background(), 1)
	if err != nil {
		t.Fatalf("RecentActivity() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Category != "Images" {
		t.Fatalf("recent activity = %+v, want one Images entry", entries)
	}
}
