package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdantpeak/cultivation-engine/internal/config"
	"github.com/verdantpeak/cultivation-engine/internal/handlers"
	"github.com/verdantpeak/cultivation-engine/internal/logger"
	"github.com/verdantpeak/cultivation-engine/internal/middleware"
	"github.com/verdantpeak/cultivation-engine/internal/services/events"
	"github.com/verdantpeak/cultivation-engine/internal/services/queue"
	"github.com/verdantpeak/cultivation-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Cultivation Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"redis_addr", cfg.RedisAddr,
		"data_dir", cfg.DataDir)

	store := storage.NewRedisStorage(cfg.RedisAddr, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	queueClient, err := queue.NewClient(cfg.RedisURL(), log)
	if err != nil {
		log.Error("Failed to connect to queue", "error", err)
		os.Exit(1)
	}
	turnQueue := queue.NewTurnQueue(queueClient, log)
	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	sessions := handlers.NewSessionManager()
	turnHandler := handlers.NewTurnHandler(log, store, turnQueue, broadcaster, sessions)
	combatHandler := handlers.NewCombatHandler(log, store, sessions, broadcaster)
	runHandler := handlers.NewRunHandler(log, store, turnHandler, combatHandler)
	mux.Handle("/v1/runs", runHandler)
	mux.Handle("/v1/runs/", runHandler)

	enemyHandler := handlers.NewEnemyHandler(log, store)
	mux.Handle("/v1/enemies", enemyHandler)
	mux.Handle("/v1/enemies/", enemyHandler)

	eventsHandler := handlers.NewEventsHandler(queueClient.GetRedisClient(), log)
	mux.Handle("/v1/events/runs/", eventsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout removed to enable SSE streaming
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue connection", "error", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
