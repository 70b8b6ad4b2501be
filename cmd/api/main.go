package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anime-shed/channel-engine/internal/config"
	"github.com/anime-shed/channel-engine/internal/container"
	"github.com/anime-shed/channel-engine/internal/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup structured logging
	logger.SetLevel(cfg.LogLevel)

	// Initialize dependency injection container
	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Get HTTP handler from container (already configured with all dependencies)
	handler := c.Handler()

	// Websocket clients hold their connection open, so only reads are bounded
	server := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           handler,
		ReadTimeout:       cfg.RequestTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.ServerAddress(),
			"timeout": cfg.RequestTimeout,
			"palette": cfg.DefaultPalette,
			"policy":  cfg.DefaultReferencePolicy.String(),
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := c.Close(); err != nil {
		logger.WithError(err).Error("Failed to release resources")
	}

	logger.Info("Server exited")
}
