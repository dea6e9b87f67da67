package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/huddle_karma/config"
	deps "github.com/bwise1/huddle_karma/internal/debs"
	api "github.com/bwise1/huddle_karma/internal/http/rest"
	log "github.com/sirupsen/logrus"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg := config.New()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := deps.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialise dependencies")
	}

	if err := d.Scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}

	a := &api.API{
		Config: cfg,
		Deps:   d,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("Server running")
		if err := a.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	log.Info("Request to shutdown server. Doing nothing for ", allowConnectionsAfterShutdown)
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	log.Info("Shutting down server...")
	if err := a.Shutdown(); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	cancel()
	d.Scheduler.Stop()
	d.Close()
	log.Info("Database connections closed.")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
