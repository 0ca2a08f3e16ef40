// Package serverapp wires the control-plane HTTP server: logger, session
// manager, chi router, and graceful shutdown on SIGINT/SIGTERM. Both
// cmd/server and dashhlsctl's serve subcommand call into it so there is
// exactly one process entrypoint.
package serverapp

import (
	"context"
	"dash2hlsd/internal/api"
	"dash2hlsd/internal/logger"
	"dash2hlsd/internal/session"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Config is the server's bound runtime configuration.
type Config struct {
	ListenAddr string
	LogLevel   string
	OutputDir  string
}

// Run starts the control plane and blocks until it receives SIGINT or
// SIGTERM, then shuts down gracefully.
func Run(cfg Config) error {
	log := logger.NewLogger(cfg.LogLevel)
	log.Infof("starting dash2hlsd control plane")
	log.Infof("log level set to %s", cfg.LogLevel)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output root %s: %w", cfg.OutputDir, err)
	}

	mgr := session.NewManager(log, cfg.OutputDir)
	router := api.New(mgr, log)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	case <-quit:
	}

	log.Infof("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mgr.Shutdown()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Infof("exited gracefully")
	return nil
}
