package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/verdantpeak/cultivation-engine/internal/services/events"
	"github.com/verdantpeak/cultivation-engine/internal/services/queue"
	"github.com/verdantpeak/cultivation-engine/internal/storage"
	queuePkg "github.com/verdantpeak/cultivation-engine/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second
	turnLockTTL   = 30 * time.Second
)

// Worker processes turn requests from the queue
type Worker struct {
	id          string
	queue       *queue.TurnQueue
	processor   *TurnProcessor
	storage     storage.Storage
	broadcaster *events.Broadcaster
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(turnQueue *queue.TurnQueue, processor *TurnProcessor, s storage.Storage, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	broadcaster := events.NewBroadcaster(redisClient, log)

	return &Worker{
		id:          workerID,
		queue:       turnQueue,
		processor:   processor,
		storage:     s,
		broadcaster: broadcaster,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request (timeout to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout+time.Second)
	defer cancel()

	req, err := w.queue.BlockingDequeueRequest(ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}

	if req == nil {
		// Queue is empty or timeout occurred, which is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Type,
		"run_id", req.RunID.String(),
	)

	// A run has at most one in-flight turn. If another worker holds the
	// lock, re-queue at the end and move on.
	locked, err := w.storage.AcquireTurnLock(w.ctx, req.RunID, w.id, turnLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire turn lock: %w", err)
	}
	if !locked {
		w.log.Info("Run already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"run_id", req.RunID.String(),
		)
		if err := w.queue.EnqueueRequest(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer func() {
		if err := w.storage.ReleaseTurnLock(w.ctx, req.RunID, w.id); err != nil {
			w.log.Error("Failed to release turn lock", "error", err, "run_id", req.RunID.String())
		}
	}()
	return w.processRequest(req)
}

// processRequest processes a single request using the TurnProcessor
func (w *Worker) processRequest(req *queuePkg.Request) error {
	if req.Type != queuePkg.RequestTypeTurn {
		return fmt.Errorf("unknown request type: %s", req.Type)
	}

	w.log.Info("Processing turn request",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"run_id", req.RunID.String(),
	)

	start := time.Now()

	gs, outcome, err := w.processor.ProcessTurn(w.ctx, req)
	if err != nil {
		w.log.Error("Failed to process turn request",
			"error", err,
			"request_id", req.RequestID,
			"run_id", req.RunID.String(),
		)

		if pubErr := w.broadcaster.PublishTurnFailed(w.ctx, req.RunID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}

		return fmt.Errorf("failed to process turn request: %w", err)
	}

	w.log.Info("Turn request processed successfully",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"turn", gs.TurnCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := w.broadcaster.PublishTurnApplied(w.ctx, req.RunID, req.RequestID, gs.TurnCount, outcome); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}

	if bt := outcome.Breakthrough; bt != nil {
		if err := w.broadcaster.PublishBreakthrough(w.ctx, req.RunID, bt.PreviousRealm.String(), bt.NewRealm.String(), bt.NewStage); err != nil {
			w.log.Error("Failed to publish breakthrough event", "error", err)
		}
	}

	return nil
}
