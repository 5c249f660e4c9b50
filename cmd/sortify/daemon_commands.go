package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sortify/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start monitoring in a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start()
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, resp.Message)
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop monitoring in a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, "monitoring stopped")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Running", yesNo(resp.Running)},
					{"Mode", resp.Mode},
					{"Source", resp.SourceDir},
					{"Pending files", fmt.Sprintf("%d", resp.PendingFiles)},
					{"Stats DB", resp.StatsDBPath},
					{"Lock file", resp.LockFilePath},
					{"PID", fmt.Sprintf("%d", resp.PID)},
				}
				fmt.Fprintln(os.Stdout, renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}
