package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"sortify/internal/config"
	"sortify/internal/logging"
	"sortify/internal/monitor"
	"sortify/internal/stats"
)

// Daemon ties the monitor and stats store together and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *stats.Store
	monitor *monitor.Monitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Mode         string
	SourceDir    string
	PendingFiles int
	StatsDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *stats.Store, mon *monitor.Monitor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || mon == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, monitor, and logger")
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		monitor:  mon,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start launches the monitor and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another sortify daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.monitor.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start monitor: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("sortify daemon started",
		logging.String("lock", d.lockPath),
		logging.String("mode", d.monitor.Mode()),
	)
	return nil
}

// Stop stops the monitor and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.monitor.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("sortify daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// ScanNow triggers a manual scan through the monitor.
func (d *Daemon) ScanNow(ctx context.Context) (successCount, errorCount int) {
	return d.monitor.ScanNow(ctx)
}

// Stats exposes the statistics store for query serving.
func (d *Daemon) Stats() *stats.Store {
	return d.store
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Mode:         d.monitor.Mode(),
		SourceDir:    d.cfg.Paths.SourceDir,
		PendingFiles: d.monitor.PendingCount(),
		StatsDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
