package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sortify/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Query sorting statistics",
	}

	var limit int
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recently sorted files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *stats.Store) error {
				entries, err := store.RecentActivity(cmd.Context(), limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{entry.FileName, entry.Category, entry.TimeAgo})
				}
				fmt.Fprintln(os.Stdout, renderTable([]string{"File", "Category", "Sorted"}, rows, nil))
				return nil
			})
		},
	}
	recentCmd.Flags().IntVar(&limit, "limit", 10, "Number of entries to show")

	totalsCmd := &cobra.Command{
		Use:   "totals",
		Short: "Show aggregate sorting totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *stats.Store) error {
				totals, err := store.TotalStats(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Files sorted", strconv.Itoa(totals.TotalFiles)},
					{"Total size", totals.TotalSize},
					{"Categories", strconv.Itoa(totals.CategoryCount)},
				}
				fmt.Fprintln(os.Stdout, renderTable([]string{"Metric", "Value"}, rows, nil))
				return nil
			})
		},
	}

	var window string
	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "Show category distribution over a time window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *stats.Store) error {
				distribution, err := store.CategoryDistribution(cmd.Context(), stats.Window(window))
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(distribution))
				for _, stat := range distribution {
					rows = append(rows, []string{stat.Category, strconv.Itoa(stat.Count), stat.Size})
				}
				fmt.Fprintln(os.Stdout, renderTable(
					[]string{"Category", "Files", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	categoriesCmd.Flags().StringVar(&window, "window", "month", "Time window: week, month, or year")

	var monthsBack int
	monthlyCmd := &cobra.Command{
		Use:   "monthly",
		Short: "Show per-month category counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *stats.Store) error {
				buckets, err := store.MonthlyStats(cmd.Context(), monthsBack)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(buckets))
				for _, bucket := range buckets {
					total := 0
					categories := make([]string, 0, len(bucket.Categories))
					for name, count := range bucket.Categories {
						total += count
						categories = append(categories, fmt.Sprintf("%s: %d", name, count))
					}
					sort.Strings(categories)
					detail := "-"
					if len(categories) > 0 {
						detail = strings.Join(categories, ", ")
					}
					rows = append(rows, []string{bucket.Label, strconv.Itoa(total), detail})
				}
				fmt.Fprintln(os.Stdout, renderTable(
					[]string{"Month", "Files", "By category"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	monthlyCmd.Flags().IntVar(&monthsBack, "months", 6, "Number of months to include")

	statsCmd.AddCommand(recentCmd, totalsCmd, categoriesCmd, monthlyCmd)
	return statsCmd
}

// withStore opens the statistics database read path directly; WAL mode lets
// these queries run while the daemon writes.
func withStore(ctx *commandContext, fn func(*stats.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := stats.OpenPath(cfg.StatsDBPath())
	if err != nil {
		return fmt.Errorf("open stats store: %w", err)
	}
	defer store.Close()
	return fn(store)
}
