package stats

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Window selects the time range of a category distribution query.
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

// Days returns the window length in days, defaulting to a month for
// unrecognized values.
func (w Window) Days() int {
	switch w {
	case WindowWeek:
		return 7
	case WindowYear:
		return 365
	default:
		return 30
	}
}

// Activity is one entry of the recent-activity feed.
type Activity struct {
	FileName string    `json:"file_name"`
	Category string    `json:"category"`
	SortedAt time.Time `json:"sorted_at"`
	TimeAgo  string    `json:"time_ago"`
}

// Totals aggregates the full sorting history.
type Totals struct {
	TotalFiles     int    `json:"total_files"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
	TotalSize      string `json:"total_size"`
	CategoryCount  int    `json:"category_count"`
}

// CategoryStat is one row of a windowed category distribution.
type CategoryStat struct {
	Category  string `json:"category"`
	Count     int    `json:"count"`
	SizeBytes int64  `json:"size_bytes"`
	Size      string `json:"size"`
}

// MonthBucket holds per-category counts for one calendar month. Months with
// no activity carry an empty map rather than being omitted.
type MonthBucket struct {
	Label      string         `json:"month"`
	Key        string         `json:"month_key"`
	Categories map[string]int `json:"categories"`
}

// FormatSize renders a byte count for humans.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

func timeAgo(t, now time.Time) string {
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
