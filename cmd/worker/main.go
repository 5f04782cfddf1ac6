package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdantpeak/cultivation-engine/internal/config"
	"github.com/verdantpeak/cultivation-engine/internal/logger"
	"github.com/verdantpeak/cultivation-engine/internal/services/queue"
	"github.com/verdantpeak/cultivation-engine/internal/storage"
	"github.com/verdantpeak/cultivation-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Cultivation Engine Worker",
		"environment", cfg.Environment,
		"redis_addr", cfg.RedisAddr)

	// Initialize queue service
	queueClient, err := queue.NewClient(cfg.RedisURL(), log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	turnQueue := queue.NewTurnQueue(queueClient, log)
	log.Info("Queue service initialized successfully")

	// Initialize storage service
	storageService := storage.NewRedisStorage(cfg.RedisAddr, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storageService.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	processor := worker.NewTurnProcessor(storageService, log)
	log.Info("Turn processor initialized successfully")

	// Create and start worker with processor
	w := worker.New(turnQueue, processor, storageService, queueClient.GetRedisClient(), log, cfg.WorkerID)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start worker in goroutine
	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for requests...")

	// Wait for shutdown signal
	<-quit
	log.Info("Worker shutdown signal received")

	// Stop worker
	w.Stop()

	// Give worker time to finish current request
	time.Sleep(2 * time.Second)

	log.Info("Worker exited")
}
