package daemon_test

import (
	"context"
	"testing"
	"time"

	"corral/internal/daemon"
	"corral/internal/engine"
	"corral/internal/logging"
	"corral/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	coord := engine.NewCoordinator(cfg, st, logger)

	d, err := daemon.New(cfg, st, coord, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected daemon to report running")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	status := d.StatusSnapshot()
	if status.DBPath == "" || status.LockFilePath == "" {
		t.Fatalf("incomplete status: %+v", status)
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	if d.Running() {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRestart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	coord := engine.NewCoordinator(cfg, st, logger)

	d, err := daemon.New(cfg, st, coord, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	d.Stop()

	// Stop must release the lock and cancellation state so the daemon can
	// come back up in the same process.
	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected daemon to report running after restart")
	}
}

func TestDaemonSecondInstanceBlocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	coord := engine.NewCoordinator(cfg, st, logger)

	first, err := daemon.New(cfg, st, coord, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(first.Stop)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	second, err := daemon.New(cfg, st, coord, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected")
	}
}
