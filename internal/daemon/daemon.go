package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"corral/internal/config"
	"corral/internal/engine"
	"corral/internal/logging"
	"corral/internal/store"
)

// Daemon schedules recurring detection passes and enforces single-instance
// execution.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *store.Store
	coordinator *engine.Coordinator

	lockPath string
	lock     *flock.Flock

	scheduler *cron.Cron
	running   atomic.Bool
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DBPath       string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, coordinator *engine.Coordinator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || coordinator == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, coordinator, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "corrald.lock")
	return &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		store:       st,
		coordinator: coordinator,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, runs an immediate pass, and schedules
// recurring passes at the configured interval.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another corral daemon instance is already running")
	}

	// Pass goroutines get the context as an argument rather than through a
	// shared field, so Stop never races with a tick reading it.
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.scheduler = cron.New()
	spec := fmt.Sprintf("@every %dm", d.cfg.Workflow.PassIntervalMinutes)
	if _, err := d.scheduler.AddFunc(spec, func() { d.runScheduledPass(runCtx) }); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("schedule passes: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("corral daemon started",
		logging.String("lock", d.lockPath),
		logging.String("schedule", spec),
	)

	// First pass runs right away; the scheduler only fires after one full
	// interval.
	go d.runScheduledPass(runCtx)
	d.scheduler.Start()
	return nil
}

// Stop stops the scheduler, waits for an in-flight pass, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.scheduler != nil {
		stopCtx := d.scheduler.Stop()
		<-stopCtx.Done()
		d.scheduler = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("corral daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// StatusSnapshot returns current daemon information.
func (d *Daemon) StatusSnapshot() Status {
	return Status{
		Running:      d.running.Load(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

func (d *Daemon) runScheduledPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	stats, err := d.coordinator.RunPass(ctx)
	switch {
	case errors.Is(err, engine.ErrPassActive):
		d.logger.Warn("pass still running, skipping tick")
	case errors.Is(err, context.Canceled):
	case err != nil:
		d.logger.Error("detection pass failed",
			logging.String(logging.FieldPassID, stats.PassID),
			logging.Error(err),
		)
	}
}
