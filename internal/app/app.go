// Package app assembles the server process: configuration, logging,
// storage, the maze, the hub, and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	server "pellet-run/server"
	"pellet-run/server/internal/maze"
	servernet "pellet-run/server/internal/net"
	"pellet-run/server/internal/storage"
	"pellet-run/server/logging"
	loggingsinks "pellet-run/server/logging/sinks"
)

// Run starts the server and blocks until the context is cancelled or
// SIGINT/SIGTERM arrives.
func Run(ctx context.Context) error {
	cfg := server.LoadConfig()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("invalid log level %q, using info", cfg.LogLevel)
	}

	layout, err := loadLayout(cfg.MazePath)
	if err != nil {
		return fmt.Errorf("load maze: %w", err)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	router := logging.NewRouter(logging.DefaultConfig(), logging.SystemClock{}, []logging.NamedSink{
		{Name: "console", Sink: loggingsinks.NewConsoleSink(os.Stdout)},
	})
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.WithError(cerr).Warn("failed to close event router")
		}
	}()

	hub := server.NewHub(server.HubConfig{
		Layout:    layout,
		Store:     store,
		Publisher: router,
		Logger:    logger,
		Seed:      cfg.Seed,
	})

	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir:  cfg.ClientDir,
		Logger:     logger,
		EventStats: router.Stats,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadLayout(path string) (*maze.Layout, error) {
	if path == "" {
		return maze.Default()
	}
	return maze.LoadDefinition(path)
}
