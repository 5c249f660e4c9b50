package monitor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sortify/internal/logging"
)

// ChangeSource delivers the paths of files that appear in one directory.
// Implementations watch non-recursively and call notify once per observed
// file; the monitor owns all debouncing on top.
type ChangeSource interface {
	Start(dir string, notify func(path string)) error
	Stop()
}

// fsnotifySource subscribes to native filesystem notifications.
type fsnotifySource struct {
	logger *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewNotifySource returns a change source backed by OS file notifications.
func NewNotifySource(logger *slog.Logger) ChangeSource {
	return &fsnotifySource{logger: logging.NewComponentLogger(logger, "notify-source")}
}

func (s *fsnotifySource) Start(dir string, notify func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	s.mu.Lock()
	s.watcher = watcher
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Create) {
					notify(event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("watch error", logging.Error(err))
			}
		}
	}()
	return nil
}

func (s *fsnotifySource) Stop() {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// pollingSource diffs directory listings on a fixed interval. It serves as
// the fallback when native notifications are unavailable.
type pollingSource struct {
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPollingSource returns a change source that detects new files by
// periodically enumerating the directory.
func NewPollingSource(interval time.Duration, logger *slog.Logger) ChangeSource {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &pollingSource{
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "polling-source"),
	}
}

func (s *pollingSource) Start(dir string, notify func(path string)) error {
	seen, err := listFiles(dir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current, err := listFiles(dir)
				if err != nil {
					s.logger.Warn("poll source directory", logging.Error(err))
					continue
				}
				for name := range current {
					if _, ok := seen[name]; !ok {
						notify(filepath.Join(dir, name))
					}
				}
				seen = current
			}
		}
	}()
	return nil
}

func (s *pollingSource) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func listFiles(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files[entry.Name()] = struct{}{}
	}
	return files, nil
}
