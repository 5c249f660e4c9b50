package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecentActivity returns the most recently sorted files, newest first, each
// annotated with a relative-age string.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_name, category, sorted_at
		FROM sorted_files
		ORDER BY sorted_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent activity: %w", err)
	}
	defer rows.Close()

	now := s.now().UTC()
	var results []Activity
	for rows.Next() {
		var entry Activity
		var sortedAt string
		if err := rows.Scan(&entry.FileName, &entry.Category, &sortedAt); err != nil {
			return nil, fmt.Errorf("scan recent activity: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, sortedAt)
		if err != nil {
			return nil, fmt.Errorf("parse sorted_at %q: %w", sortedAt, err)
		}
		entry.SortedAt = ts
		entry.TimeAgo = timeAgo(ts, now)
		results = append(results, entry)
	}
	return results, rows.Err()
}

// TotalStats returns aggregate counts over the whole sorting history.
func (s *Store) TotalStats(ctx context.Context) (Totals, error) {
	ctx = ensureContext(ctx)

	var totals Totals
	var totalSize sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(size_bytes), 0), COUNT(DISTINCT category)
		FROM sorted_files`,
	).Scan(&totals.TotalFiles, &totalSize, &totals.CategoryCount)
	if err != nil {
		return Totals{}, fmt.Errorf("query total stats: %w", err)
	}
	totals.TotalSizeBytes = totalSize.Int64
	totals.TotalSize = FormatSize(totals.TotalSizeBytes)
	return totals, nil
}

// CategoryDistribution returns per-category counts and byte totals within
// the window ending now, ordered by descending count.
func (s *Store) CategoryDistribution(ctx context.Context, window Window) ([]CategoryStat, error) {
	ctx = ensureContext(ctx)

	end := s.now().UTC()
	start := end.AddDate(0, 0, -window.Days())

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(size_bytes), 0)
		FROM sorted_files
		WHERE sorted_at BETWEEN ? AND ?
		GROUP BY category
		ORDER BY COUNT(*) DESC, category ASC`,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query category distribution: %w", err)
	}
	defer rows.Close()

	var results []CategoryStat
	for rows.Next() {
		var stat CategoryStat
		if err := rows.Scan(&stat.Category, &stat.Count, &stat.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan category distribution: %w", err)
		}
		stat.Size = FormatSize(stat.SizeBytes)
		results = append(results, stat)
	}
	return results, rows.Err()
}

// MonthlyStats returns per-category counts for every calendar month from
// monthsBack months ago through the current month, chronologically, with
// explicit zero-filled entries for quiet months.
func (s *Store) MonthlyStats(ctx context.Context, monthsBack int) ([]MonthBucket, error) {
	ctx = ensureContext(ctx)
	if monthsBack <= 0 {
		monthsBack = 6
	}

	end := s.now().UTC()
	endMonth := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	startMonth := endMonth.AddDate(0, -(monthsBack - 1), 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', sorted_at) AS month, category, COUNT(*)
		FROM sorted_files
		WHERE sorted_at >= ?
		GROUP BY month, category
		ORDER BY month`,
		startMonth.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query monthly stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]map[string]int)
	for rows.Next() {
		var month, category string
		var count int
		if err := rows.Scan(&month, &category, &count); err != nil {
			return nil, fmt.Errorf("scan monthly stats: %w", err)
		}
		if counts[month] == nil {
			counts[month] = make(map[string]int)
		}
		counts[month][category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var buckets []MonthBucket
	for current := startMonth; !current.After(endMonth); current = current.AddDate(0, 1, 0) {
		key := current.Format("2006-01")
		categories := counts[key]
		if categories == nil {
			categories = make(map[string]int)
		}
		buckets = append(buckets, MonthBucket{
			Label:      current.Format("Jan 2006"),
			Key:        key,
			Categories: categories,
		})
	}
	return buckets, nil
}
