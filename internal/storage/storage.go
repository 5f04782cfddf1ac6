package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/pkg/combat"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// Storage defines a unified interface for all storage operations
// This interface combines run-state persistence (Redis) with static
// resource loading (filesystem enemy templates)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Run state operations (Redis-backed)
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Turn locks (Redis-backed). A run has at most one in-flight turn;
	// AcquireTurnLock returns false when another owner holds the lock.
	// RefreshTurnLock extends a lock's TTL only while the owner still
	// holds it, and ReleaseTurnLock only deletes a lock the owner still
	// holds.
	AcquireTurnLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)
	RefreshTurnLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)
	ReleaseTurnLock(ctx context.Context, id uuid.UUID, owner string) error

	// Enemy template operations (filesystem-backed)
	GetEnemyTemplate(ctx context.Context, templateID string) (*combat.Enemy, error)
	ListEnemyTemplates(ctx context.Context) (map[string]string, error)
}
