// Command server runs the segmentation HTTP service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/segmenter/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Fatal("init: ", err)
	}

	logger := srv.infra.Logger
	logger.Info("segmenter starting", "version", cfg.Version, "addr", cfg.Server.Addr(), "env", cfg.Env())

	if err := srv.Start(); err != nil {
		log.Fatal("start: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("segmenter stopped")
}
