package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DanceDeck/config"
	"DanceDeck/core/importer"
	"DanceDeck/internal/app"
	"DanceDeck/logger"
)

// Start initializes the backends and runs the HTTP server until SIGINT or
// SIGTERM.
func Start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.Close()

	opts := []Option{WithLogger(logger.Named("server"))}
	if stack.Snapshots != nil {
		opts = append(opts, WithSnapshots(stack.Snapshots))
	}
	handler := NewAPIHandler(cfg, stack.Repo, opts...)

	if cfg.ImportDir != "" {
		im := importer.New(cfg.ImportDir, stack.Repo, logger.Named("importer"))
		if n, err := im.Scan(ctx); err != nil {
			logger.Warn("initial import scan failed", logger.ErrorField(err))
		} else if n > 0 {
			logger.Info("imported videos from watch folder", logger.Int("count", n))
		}
		go func() {
			if err := im.Run(ctx); err != nil {
				logger.Error("import watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	// WebSocket 连接自行设置写超时，这里不设 WriteTimeout
	server := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     handler.Router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr), logger.Bool("auth", cfg.AuthEnabled()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
