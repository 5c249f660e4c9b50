package sorter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sortify/internal/classify"
	"sortify/internal/config"
	"sortify/internal/fileutil"
	"sortify/internal/logging"
)

// ErrNotFound indicates the file disappeared before it could be sorted.
// Callers drop the item; this is not a failure.
var ErrNotFound = errors.New("file no longer exists")

// Recorder receives a notification for every successfully moved file.
// Recording failures are logged and never affect the move outcome.
type Recorder interface {
	RecordSortedFile(ctx context.Context, originalPath, category, destinationPath string) error
}

// Result describes a completed move.
type Result struct {
	Destination string
	Category    string
}

// Sorter moves files into destination/year/"MM - Month"/category paths.
// It holds no persistent state; the monitor guarantees at most one Sort is
// in flight at a time.
type Sorter struct {
	destinationRoot string
	classifier      *classify.Classifier
	recorder        Recorder
	logger          *slog.Logger
}

// New constructs a sorter from configuration. The recorder may be nil when
// statistics are not wanted (one-off scans in tests).
func New(cfg *config.Config, recorder Recorder, logger *slog.Logger) *Sorter {
	return &Sorter{
		destinationRoot: cfg.Paths.DestinationDir,
		classifier:      classify.New(cfg.Categories),
		recorder:        recorder,
		logger:          logging.NewComponentLogger(logger, "sorter"),
	}
}

// Sort relocates a single file into its destination directory, resolving
// name conflicts with a _N suffix. Returns ErrNotFound when the file
// vanished before processing.
func (s *Sorter) Sort(ctx context.Context, filePath string) (Result, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("file no longer exists", logging.String("path", filePath))
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("%s is a directory", filePath)
	}

	category := s.classifier.Categorize(info.Name())
	targetDir := s.targetDirectory(creationTime(filePath, info), category)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create target directory %s: %w", targetDir, err)
	}

	targetPath := resolveConflict(targetDir, info.Name())
	if err := fileutil.MoveFile(filePath, targetPath); err != nil {
		return Result{}, fmt.Errorf("move %s: %w", filePath, err)
	}

	s.logger.Info("moved file",
		logging.String("source", filePath),
		logging.String("destination", targetPath),
		logging.String("category", category),
	)

	if s.recorder != nil {
		if err := s.recorder.RecordSortedFile(ctx, filePath, category, targetPath); err != nil {
			// The move already succeeded and is authoritative.
			s.logger.Error("record sorted file", logging.Error(err), logging.String("path", targetPath))
		}
	}

	return Result{Destination: targetPath, Category: category}, nil
}

// SortDirectory sorts every direct child file of dirPath and returns the
// success and error counts. Per-file failures are absorbed; vanished or
// unreadable entries count as errors only when an actual move failed.
func (s *Sorter) SortDirectory(ctx context.Context, dirPath string) (successCount, errorCount int) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		s.logger.Error("read source directory", logging.Error(err), logging.String("dir", dirPath))
		return 0, 0
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		path := filepath.Join(dirPath, entry.Name())
		if _, err := s.Sort(ctx, path); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			s.logger.Error("sort file", logging.Error(err), logging.String("path", path))
			errorCount++
			continue
		}
		successCount++
	}

	s.logger.Info("bulk sort complete",
		logging.String("dir", dirPath),
		logging.Int("sorted", successCount),
		logging.Int("errors", errorCount),
	)
	return successCount, errorCount
}

func (s *Sorter) targetDirectory(created time.Time, category string) string {
	yearFolder := fmt.Sprintf("%d", created.Year())
	monthFolder := fmt.Sprintf("%02d - %s", int(created.Month()), created.Month().String())
	return filepath.Join(s.destinationRoot, yearFolder, monthFolder, category)
}

// resolveConflict probes for an unused name in targetDir, appending _1, _2,
// ... before the extension. The monitor's single-threaded processing keeps
// the probe race-free.
func resolveConflict(targetDir, name string) string {
	candidate := filepath.Join(targetDir, name)
	if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
		return candidate
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		candidate = filepath.Join(targetDir, fmt.Sprintf("%s_%d%s", base, counter, ext))
		if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}
}
