package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/pkg/combat"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu         sync.RWMutex
	gamestates map[uuid.UUID]*state.GameState
	enemies    map[string]*combat.Enemy
	locks      map[uuid.UUID]string
	pingError  error
	saveError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID]*state.GameState),
		enemies:    make(map[string]*combat.Enemy),
		locks:      make(map[uuid.UUID]string),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on SaveGameState
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGameState mocks saving a run state
func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.gamestates[id] = gs
	return nil
}

// LoadGameState mocks loading a run state
func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gs, exists := m.gamestates[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return gs, nil
}

// DeleteGameState mocks deleting a run state
func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	return nil
}

// AcquireTurnLock mocks taking the per-run turn lock
func (m *MockStorage) AcquireTurnLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return false, nil
	}
	m.locks[id] = owner
	return true, nil
}

// RefreshTurnLock mocks extending the per-run turn lock
func (m *MockStorage) RefreshTurnLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, ok := m.locks[id]
	return ok && held == owner, nil
}

// ReleaseTurnLock mocks releasing the per-run turn lock
func (m *MockStorage) ReleaseTurnLock(ctx context.Context, id uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] == owner {
		delete(m.locks, id)
	}
	return nil
}

// GetEnemyTemplate mocks loading an enemy template by ID
func (m *MockStorage) GetEnemyTemplate(ctx context.Context, templateID string) (*combat.Enemy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, exists := m.enemies[templateID]
	if !exists {
		return nil, errors.New("enemy template not found: " + templateID)
	}
	return e, nil
}

// ListEnemyTemplates mocks listing enemy templates
func (m *MockStorage) ListEnemyTemplates(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string, len(m.enemies))
	for id, e := range m.enemies {
		result[e.Name] = id
	}
	return result, nil
}

// AddEnemyTemplate adds an enemy template to the mock storage (for testing)
func (m *MockStorage) AddEnemyTemplate(templateID string, e *combat.Enemy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enemies[templateID] = e
}
