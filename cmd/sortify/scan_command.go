package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sortify/internal/ipc"
	"sortify/internal/logging"
	"sortify/internal/monitor"
	"sortify/internal/sorter"
	"sortify/internal/stats"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Sort the source folder now",
		Long: "Delegates to the running daemon when one is reachable; otherwise " +
			"performs a one-off local bulk sort.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !local {
				err := ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.Scan()
					if err != nil {
						return err
					}
					printScanResult(resp.Sorted, resp.Errors)
					return nil
				})
				if err == nil {
					return nil
				}
				fmt.Fprintf(os.Stderr, "daemon not reachable, scanning locally: %v\n", err)
			}
			return runLocalScan(cmd.Context(), ctx)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Skip the daemon and sort in this process")
	return cmd
}

// runLocalScan performs a one-off bulk sort without a running daemon. It
// still records statistics so manual and watched sorts share one history.
func runLocalScan(cmdCtx context.Context, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})
	if err != nil {
		return err
	}

	store, err := stats.Open(cfg)
	if err != nil {
		return fmt.Errorf("open stats store: %w", err)
	}
	defer store.Close()

	srt := sorter.New(cfg, store, logger)
	mon := monitor.New(cfg, srt, nil, logger)

	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	sorted, errs := mon.ScanNow(cmdCtx)
	printScanResult(sorted, errs)
	return nil
}

func printScanResult(sorted, errs int) {
	fmt.Fprintf(os.Stdout, "scan complete: %d sorted, %d errors\n", sorted, errs)
}
