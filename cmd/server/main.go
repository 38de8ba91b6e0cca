package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ahmetzturk/yt-summarizer/internal/cache"
	"github.com/ahmetzturk/yt-summarizer/internal/config"
	"github.com/ahmetzturk/yt-summarizer/internal/handlers"
	"github.com/ahmetzturk/yt-summarizer/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logCloser, err := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogDir)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create server
	server, err := handlers.NewServer(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to create server: %v", err)
	}
	defer server.Close()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:           server.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start periodic cache cleanup
	scheduler, err := startCachePurge(ctx, server.CacheManager(), cfg.CacheCleanupSchedule)
	if err != nil {
		logrus.Fatalf("Failed to schedule cache cleanup: %v", err)
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":  httpServer.Addr,
			"model": cfg.GeminiModel,
			"cache": cfg.CacheType,
		}).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	logrus.Info("Shutting down server...")

	// Cancel background tasks
	cancel()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown error")
	}

	logrus.Info("Server stopped")
}

// startCachePurge removes expired summaries on schedule. It returns nil when
// caching is disabled or the schedule is empty.
func startCachePurge(ctx context.Context, manager *cache.Manager, schedule string) (*cron.Cron, error) {
	if manager == nil || schedule == "" {
		return nil, nil
	}

	c := cron.New(cron.WithLogger(cron.PrintfLogger(logrus.StandardLogger())))
	_, err := c.AddFunc(schedule, func() {
		removed, err := manager.PurgeExpired(ctx)
		if err != nil {
			logrus.WithError(err).Warn("Cache cleanup failed")
			return
		}
		if removed > 0 {
			logrus.WithField("removed", removed).Info("Purged expired summaries")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", schedule, err)
	}

	c.Start()
	return c, nil
}
