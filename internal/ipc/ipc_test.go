package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sortify/internal/config"
	"sortify/internal/daemon"
	"sortify/internal/ipc"
	"sortify/internal/logging"
	"sortify/internal/monitor"
	"sortify/internal/sorter"
	"sortify/internal/testsupport"
)

func startTestServer(t *testing.T) (*config.Config, *ipc.Client) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srt := sorter.New(cfg, store, logging.NewNop())
	mon := monitor.New(cfg, srt, nil, logging.NewNop())
	d, err := daemon.New(cfg, store, mon, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New() error = %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	server, err := ipc.NewServer(context.Background(), cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer() error = %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return cfg, client
}

func TestStatusRoundTrip(t *testing.T) {
	cfg, client := startTestServer(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Running {
		t.Fatal("Running = true before Start")
	}
	if status.SourceDir != cfg.Paths.SourceDir {
		t.Fatalf("SourceDir = %q, want %q", status.SourceDir, cfg.Paths.SourceDir)
	}
	if status.PID != os.Getpid() {
		t.Fatalf("PID = %d, want %d", status.PID, os.Getpid())
	}
}

func TestStartStopOverSocket(t *testing.T) {
	_, client := startTestServer(t)

	started, err := client.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !started.Started {
		t.Fatalf("Started = false: %s", started.Message)
	}

	again, err := client.Start()
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if again.Started {
		t.Fatal("second Start reported Started = true")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.Running {
		t.Fatal("Running = false after Start")
	}

	stopped, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !stopped.Stopped {
		t.Fatal("Stopped = false")
	}

	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status() after Stop error = %v", err)
	}
	if status.Running {
		t.Fatal("Running = true after Stop")
	}
}

func TestScanOverSocket(t *testing.T) {
	cfg, client := startTestServer(t)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "a.pdf"), 16)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "b.jpg"), 16)

	resp, err := client.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if resp.Sorted != 2 || resp.Errors != 0 {
		t.Fatalf("Scan() = (%d, %d), want (2, 0)", resp.Sorted, resp.Errors)
	}
}

func TestServerCloseRemovesSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srt := sorter.New(cfg, store, logging.NewNop())
	mon := monitor.New(cfg, srt, nil, logging.NewNop())
	d, err := daemon.New(cfg, store, mon, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New() error = %v", err)
	}

	server, err := ipc.NewServer(context.Background(), cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer() error = %v", err)
	}
	server.Serve()
	server.Close()

	if _, err := os.Stat(cfg.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("socket still present after Close: %v", err)
	}
	if _, err := ipc.Dial(cfg.SocketPath()); err == nil {
		t.Fatal("Dial succeeded after server Close")
	}
}
