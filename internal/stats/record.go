package stats

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RecordSortedFile appends a sorted-file record and updates the per-(date,
// category) summary in a single transaction. The size is taken from the
// destination, where the file now lives.
func (s *Store) RecordSortedFile(ctx context.Context, originalPath, category, destinationPath string) error {
	ctx = ensureContext(ctx)

	var sizeBytes int64
	if info, err := os.Stat(destinationPath); err == nil {
		sizeBytes = info.Size()
	}

	now := s.now().UTC()
	sortedAt := now.Format(time.RFC3339)
	date := now.Format("2006-01-02")
	fileName := filepath.Base(originalPath)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sorted_files (file_name, original_path, category, size_bytes, sorted_at, destination_path)
			VALUES (?, ?, ?, ?, ?, ?)`,
			fileName, originalPath, category, sizeBytes, sortedAt, destinationPath,
		); err != nil {
			return fmt.Errorf("insert sorted file: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stats_summary (date, category, count, total_size_bytes)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(date, category) DO UPDATE SET
				count = count + 1,
				total_size_bytes = total_size_bytes + excluded.total_size_bytes`,
			date, category, sizeBytes,
		); err != nil {
			return fmt.Errorf("update stats summary: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit record: %w", err)
		}
		return nil
	})
}
