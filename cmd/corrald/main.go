// Command corrald runs the consolidation engine as a daemon, executing
// detection passes on the configured interval until terminated.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"corral/internal/config"
	"corral/internal/daemon"
	"corral/internal/engine"
	"corral/internal/logging"
	"corral/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	coordinator := engine.NewCoordinator(cfg, st, logger)

	d, err := daemon.New(cfg, st, coordinator, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("corrald shutting down")
}
