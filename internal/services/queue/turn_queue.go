package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verdantpeak/cultivation-engine/pkg/queue"
)

// turnRequestsKey is the global list all workers consume from.
const turnRequestsKey = "turn-requests"

// TurnQueue manages the global queue of turn requests awaiting
// asynchronous resolution
type TurnQueue struct {
	client *Client
	logger *slog.Logger
}

// NewTurnQueue creates a new turn queue service
func NewTurnQueue(client *Client, logger *slog.Logger) *TurnQueue {
	return &TurnQueue{
		client: client,
		logger: logger,
	}
}

// EnqueueRequest adds a turn request to the global queue
func (tq *TurnQueue) EnqueueRequest(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := tq.client.rdb.RPush(ctx, turnRequestsKey, data).Err(); err != nil {
		tq.logger.Error("Failed to enqueue turn request",
			"error", err,
			"request_id", req.RequestID,
			"run_id", req.RunID.String())
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// DequeueRequest removes and returns the next request from the global queue
// Returns nil if queue is empty
func (tq *TurnQueue) DequeueRequest(ctx context.Context) (*queue.Request, error) {
	result, err := tq.client.rdb.LPop(ctx, turnRequestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	return req, nil
}

// BlockingDequeueRequest blocks until a request is available or the
// timeout elapses. A nil request with a nil error means timeout.
func (tq *TurnQueue) BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := tq.client.rdb.BLPop(ctx, timeout, turnRequestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	return req, nil
}

// Depth returns the number of requests in the global queue
func (tq *TurnQueue) Depth(ctx context.Context) (int, error) {
	count, err := tq.client.rdb.LLen(ctx, turnRequestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}
