// fleetsim runs the bundled fleet backend simulator as a standalone server,
// for developing the client against a local API with seeded data.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/config"
	"github.com/railops/railops/internal/fleetsim"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	sim, err := fleetsim.New(fleetsim.Config{
		Secret:      cfg.Sim.Secret,
		AccessTTL:   cfg.Sim.AccessTTL,
		RefreshTTL:  cfg.Sim.RefreshTTL,
		MaxSessions: cfg.Sim.MaxSessions,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize simulator")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Sim.Port,
		Handler:      sim.Handler(),
		ReadTimeout:  cfg.Sim.ReadTimeout,
		WriteTimeout: cfg.Sim.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Sim.Port).Info("Starting fleet simulator")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
