package stats

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "statistics.db"))
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func writeDest(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRecordAndTotals(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	dest := t.TempDir()

	a := writeDest(t, dest, "a.pdf", 100)
	b := writeDest(t, dest, "b.pdf", 200)
	c := writeDest(t, dest, "c.jpg", 50)

	for _, rec := range []struct {
		path, category string
	}{
		{a, "Documents"},
		{b, "Documents"},
		{c, "Images"},
	} {
		if err := store.RecordSortedFile(ctx, "/downloads/"+filepath.Base(rec.path), rec.category, rec.path); err != nil {
			t.Fatalf("RecordSortedFile(%s) error = %v", rec.path, err)
		}
	}

	totals, err := store.TotalStats(ctx)
	if err != nil {
		t.Fatalf("TotalStats() error = %v", err)
	}
	if totals.TotalFiles != 3 {
		t.Fatalf("TotalFiles = %d, want 3", totals.TotalFiles)
	}
	if totals.TotalSizeBytes != 350 {
		t.Fatalf("TotalSizeBytes = %d, want 350", totals.TotalSizeBytes)
	}
	if totals.CategoryCount != 2 {
		t.Fatalf("CategoryCount = %d, want 2", totals.CategoryCount)
	}
	if totals.TotalSize == "" {
		t.Fatal("TotalSize should be formatted")
	}
}

func TestRecordMissingDestination(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordSortedFile(ctx, "/downloads/ghost.pdf", "Documents", "/nowhere/ghost.pdf"); err != nil {
		t.Fatalf("RecordSortedFile() error = %v", err)
	}
	totals, err := store.TotalStats(ctx)
	if err != nil {
		t.Fatalf("TotalStats() error = %v", err)
	}
	if totals.TotalFiles != 1 || totals.TotalSizeBytes != 0 {
		t.Fatalf("totals = (%d files, %d bytes), want (1, 0)", totals.TotalFiles, totals.TotalSizeBytes)
	}
}

func TestRecentActivityOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

	clock := base.Add(-2 * time.Hour)
	store.now = func() time.Time { return clock }
	if err := store.RecordSortedFile(ctx, "/downloads/old.pdf", "Documents", "/nowhere/old.pdf"); err != nil {
		t.Fatalf("record old: %v", err)
	}

	clock = base.Add(-10 * time.Second)
	if err := store.RecordSortedFile(ctx, "/downloads/new.jpg", "Images", "/nowhere/new.jpg"); err != nil {
		t.Fatalf("record new: %v", err)
	}
	if err := store.RecordSortedFile(ctx, "/downloads/newer.jpg", "Images", "/nowhere/newer.jpg"); err != nil {
		t.Fatalf("record newer: %v", err)
	}

	clock = base
	entries, err := store.RecentActivity(ctx, 10)
	if err != nil {
		t.Fatalf("RecentActivity() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	// Same timestamp orders by insertion, newest first.
	if entries[0].FileName != "newer.jpg" || entries[1].FileName != "new.jpg" || entries[2].FileName != "old.pdf" {
		t.Fatalf("order = [%s %s %s]", entries[0].FileName, entries[1].FileName, entries[2].FileName)
	}
	if entries[0].TimeAgo != "just now" {
		t.Fatalf("TimeAgo = %q, want just now", entries[0].TimeAgo)
	}
	if entries[2].TimeAgo == "just now" {
		t.Fatalf("two hour old entry reported as just now")
	}

	limited, err := store.RecentActivity(ctx, 2)
	if err != nil {
		t.Fatalf("RecentActivity(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited entries = %d, want 2", len(limited))
	}
}

func TestCategoryDistributionWindow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

	clock := base.AddDate(0, 0, -40)
	store.now = func() time.Time { return clock }
	if err := store.RecordSortedFile(ctx, "/downloads/stale.pdf", "Documents", "/nowhere/stale.pdf"); err != nil {
		t.Fatalf("record stale: %v", err)
	}

	clock = base.AddDate(0, 0, -2)
	for _, name := range []string{"p1.jpg", "p2.jpg", "doc.pdf"} {
		category := "Images"
		if filepath.Ext(name) == ".pdf" {
			category = "Documents"
		}
		if err := store.RecordSortedFile(ctx, "/downloads/"+name, category, "/nowhere/"+name); err != nil {
			t.Fatalf("record %s: %v", name, err)
		}
	}

	clock = base
	week, err := store.CategoryDistribution(ctx, WindowWeek)
	if err != nil {
		t.Fatalf("CategoryDistribution(week) error = %v", err)
	}
	if len(week) != 2 {
		t.Fatalf("week categories = %d, want 2", len(week))
	}
	if week[0].Category != "Images" || week[0].Count != 2 {
		t.Fatalf("week[0] = %+v, want Images count 2", week[0])
	}
	if week[1].Category != "Documents" || week[1].Count != 1 {
		t.Fatalf("week[1] = %+v, want Documents count 1", week[1])
	}

	year, err := store.CategoryDistribution(ctx, WindowYear)
	if err != nil {
		t.Fatalf("CategoryDistribution(year) error = %v", err)
	}
	var documents int
	for _, stat := range year {
		if stat.Category == "Documents" {
			documents = stat.Count
		}
	}
	if documents != 2 {
		t.Fatalf("year Documents count = %d, want 2 including stale entry", documents)
	}
}

func TestMonthlyStatsZeroFills(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	clock := time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	if err := store.RecordSortedFile(ctx, "/downloads/june.pdf", "Documents", "/nowhere/june.pdf"); err != nil {
		t.Fatalf("record june: %v", err)
	}

	clock = time.Date(2026, time.August, 15, 9, 0, 0, 0, time.UTC)
	for _, name := range []string{"a.jpg", "b.pdf"} {
		if err := store.RecordSortedFile(ctx, "/downloads/"+name, "Others", "/nowhere/"+name); err != nil {
			t.Fatalf("record %s: %v", name, err)
		}
	}

	buckets, err := store.MonthlyStats(ctx, 3)
	if err != nil {
		t.Fatalf("MonthlyStats() error = %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("buckets = %d, want 3", len(buckets))
	}
	if buckets[0].Key != "2026-06" || buckets[1].Key != "2026-07" || buckets[2].Key != "2026-08" {
		t.Fatalf("bucket keys = [%s %s %s]", buckets[0].Key, buckets[1].Key, buckets[2].Key)
	}
	if buckets[0].Label != "Jun 2026" {
		t.Fatalf("label = %q, want Jun 2026", buckets[0].Label)
	}
	if got := buckets[0].Categories["Documents"]; got != 1 {
		t.Fatalf("June Documents = %d, want 1", got)
	}
	if buckets[1].Categories == nil || len(buckets[1].Categories) != 0 {
		t.Fatalf("July bucket = %v, want empty non-nil map", buckets[1].Categories)
	}
	if got := buckets[2].Categories["Others"]; got != 2 {
		t.Fatalf("August Others = %d, want 2", got)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.db")
	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	if err := store.RecordSortedFile(context.Background(), "/downloads/a.pdf", "Documents", "/nowhere/a.pdf"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	totals, err := reopened.TotalStats(context.Background())
	if err != nil {
		t.Fatalf("TotalStats() error = %v", err)
	}
	if totals.TotalFiles != 1 {
		t.Fatalf("TotalFiles after reopen = %d, want 1", totals.TotalFiles)
	}
}
