package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shunya-backend/internal/config"
	"shunya-backend/internal/logger"
	"shunya-backend/internal/router"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.L()
	log.Info("Starting SHUNYA AI backend...")

	if !cfg.HasAPIKey() {
		log.Warn("OPENROUTER_API_KEY is not set; proxy endpoints will answer 500")
	}
	log.WithField("referer", cfg.Referer).Info("✓ Configuration loaded")

	// ──── Step 2: Build Router ────
	r := router.NewDefault(cfg)

	// ──── Step 3: Start HTTP Server ────
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Infof("✓ SHUNYA AI backend ready on http://localhost:%s", cfg.Port)
	log.Infof("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
