package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sortify/internal/config"
	"sortify/internal/daemon"
	"sortify/internal/ipc"
	"sortify/internal/logging"
	"sortify/internal/monitor"
	"sortify/internal/sorter"
	"sortify/internal/stats"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the sortify daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(ctx)
		},
	}
}

func runDaemonProcess(ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := stats.Open(cfg)
	if err != nil {
		logger.Error("open stats store", logging.Error(err))
		return err
	}
	defer store.Close()

	state, err := config.OpenScheduleState(cfg)
	if err != nil {
		logger.Error("open schedule state", logging.Error(err))
		return err
	}

	srt := sorter.New(cfg, store, logger)
	mon := monitor.New(cfg, srt, state, logger)

	d, err := daemon.New(cfg, store, mon, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "sortify daemon running (socket %s)\n", cfg.SocketPath())
	<-signalCtx.Done()
	d.Stop()
	return nil
}
