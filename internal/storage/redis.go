package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// gameStateTTL is how long an idle run survives in Redis before expiry.
const gameStateTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis for run
// states and turn locks, and the filesystem for enemy templates
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Turn locks (Redis-backed)

func lockKey(id uuid.UUID) string {
	return "turn-lock:" + id.String()
}

// AcquireTurnLock attempts to take the per-run turn lock. It returns
// false when another owner already holds it.
func (r *RedisStorage) AcquireTurnLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(id), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire turn lock: %w", err)
	}
	return ok, nil
}

// refreshScript extends the lock's TTL only if the caller still owns
// it. A lock that expired and was re-acquired elsewhere stays with its
// new owner.
var refreshScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// RefreshTurnLock extends the per-run turn lock while the owner still
// holds it. It returns false when the lock expired or belongs to
// another owner.
func (r *RedisStorage) RefreshTurnLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	n, err := refreshScript.Run(ctx, r.client, []string{lockKey(id)}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to refresh turn lock: %w", err)
	}
	return n == 1, nil
}

// releaseScript deletes the lock only if the caller still owns it, so a
// lock that expired and was re-acquired elsewhere is never clobbered.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

func (r *RedisStorage) ReleaseTurnLock(ctx context.Context, id uuid.UUID, owner string) error {
	if err := releaseScript.Run(ctx, r.client, []string{lockKey(id)}, owner).Err(); err != nil {
		r.logger.Error("Failed to release turn lock", "error", err, "run_id", id.String())
		return fmt.Errorf("failed to release turn lock: %w", err)
	}
	return nil
}
