package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

func setupTestStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewRedisStorage(mr.Addr(), t.TempDir(), logger)
	t.Cleanup(func() { s.Close() })

	return s, mr
}

func TestRedisStorage_SaveAndLoadGameState(t *testing.T) {
	s, mr := setupTestStorage(t)
	ctx := context.Background()

	gs := state.NewGameState()
	gs.Location = "azure_peak_sect"
	gs.Inventory.Silver = 250

	if err := s.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("Failed to save gamestate: %v", err)
	}

	// Saved runs carry a TTL so abandoned runs expire on their own
	if mr.TTL("gamestate:"+gs.ID.String()) <= 0 {
		t.Error("Expected a TTL on the gamestate key")
	}

	loaded, err := s.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("Failed to load gamestate: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil gamestate")
	}
	if loaded.ID != gs.ID {
		t.Errorf("Expected ID %v, got %v", gs.ID, loaded.ID)
	}
	if loaded.Location != "azure_peak_sect" {
		t.Errorf("Expected location 'azure_peak_sect', got %v", loaded.Location)
	}
	if loaded.Inventory.Silver != 250 {
		t.Errorf("Expected 250 silver, got %d", loaded.Inventory.Silver)
	}
}

func TestRedisStorage_LoadNonExistentGameState(t *testing.T) {
	s, _ := setupTestStorage(t)
	ctx := context.Background()

	loaded, err := s.LoadGameState(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for non-existent gamestate, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for non-existent gamestate")
	}
}

func TestRedisStorage_DeleteGameState(t *testing.T) {
	s, _ := setupTestStorage(t)
	ctx := context.Background()

	gs := state.NewGameState()
	if err := s.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("Failed to save gamestate: %v", err)
	}

	if err := s.DeleteGameState(ctx, gs.ID); err != nil {
		t.Fatalf("Failed to delete gamestate: %v", err)
	}

	loaded, err := s.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("Unexpected error after deletion: %v", err)
	}
	if loaded != nil {
		t.Error("Gamestate should be nil after deletion")
	}
}

func TestRedisStorage_TurnLock(t *testing.T) {
	s, _ := setupTestStorage(t)
	ctx := context.Background()
	runID := uuid.New()

	ok, err := s.AcquireTurnLock(ctx, runID, "worker-a", 30*time.Second)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if !ok {
		t.Fatal("Expected to acquire an uncontested lock")
	}

	// A second owner must be refused while the lock is held
	ok, err = s.AcquireTurnLock(ctx, runID, "worker-b", 30*time.Second)
	if err != nil {
		t.Fatalf("Failed on contested acquire: %v", err)
	}
	if ok {
		t.Error("Expected contested acquire to be refused")
	}

	// A non-owner release must not free the lock
	if err := s.ReleaseTurnLock(ctx, runID, "worker-b"); err != nil {
		t.Fatalf("Non-owner release errored: %v", err)
	}
	ok, _ = s.AcquireTurnLock(ctx, runID, "worker-b", 30*time.Second)
	if ok {
		t.Error("Lock was freed by a non-owner release")
	}

	// The owner's release frees it
	if err := s.ReleaseTurnLock(ctx, runID, "worker-a"); err != nil {
		t.Fatalf("Owner release errored: %v", err)
	}
	ok, err = s.AcquireTurnLock(ctx, runID, "worker-b", 30*time.Second)
	if err != nil {
		t.Fatalf("Failed to acquire after release: %v", err)
	}
	if !ok {
		t.Error("Expected to acquire after the owner released")
	}
}

func TestRedisStorage_RefreshTurnLock(t *testing.T) {
	s, mr := setupTestStorage(t)
	ctx := context.Background()
	runID := uuid.New()

	// Refreshing a lock nobody holds fails
	ok, err := s.RefreshTurnLock(ctx, runID, "worker-a", 30*time.Second)
	if err != nil {
		t.Fatalf("Failed refreshing absent lock: %v", err)
	}
	if ok {
		t.Error("Expected refresh of an absent lock to fail")
	}

	if ok, err := s.AcquireTurnLock(ctx, runID, "worker-a", 5*time.Second); err != nil || !ok {
		t.Fatalf("Failed to acquire lock: ok=%v err=%v", ok, err)
	}

	// The owner's refresh extends the TTL
	ok, err = s.RefreshTurnLock(ctx, runID, "worker-a", time.Minute)
	if err != nil {
		t.Fatalf("Owner refresh errored: %v", err)
	}
	if !ok {
		t.Error("Expected the owner's refresh to succeed")
	}
	if ttl := mr.TTL("turn-lock:" + runID.String()); ttl <= 5*time.Second {
		t.Errorf("Expected TTL extended past 5s, got %v", ttl)
	}

	// A non-owner refresh neither succeeds nor touches the lock
	ok, err = s.RefreshTurnLock(ctx, runID, "worker-b", time.Minute)
	if err != nil {
		t.Fatalf("Non-owner refresh errored: %v", err)
	}
	if ok {
		t.Error("Expected a non-owner refresh to be refused")
	}
	if got, _ := mr.Get("turn-lock:" + runID.String()); got != "worker-a" {
		t.Errorf("Lock owner changed by non-owner refresh: %q", got)
	}
}

func TestRedisStorage_EnemyTemplates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	dataDir := t.TempDir()
	enemiesDir := filepath.Join(dataDir, "enemies")
	if err := os.MkdirAll(enemiesDir, 0o755); err != nil {
		t.Fatalf("Failed to create enemies dir: %v", err)
	}
	template := `{"id":"ravine_wolf","name":"Ravine Wolf","hp":30,"hp_max":30,"atk":8,"def":4,"behavior":"aggressive"}`
	if err := os.WriteFile(filepath.Join(enemiesDir, "ravine_wolf.json"), []byte(template), 0o644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewRedisStorage(mr.Addr(), dataDir, logger)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()

	e, err := s.GetEnemyTemplate(ctx, "ravine_wolf")
	if err != nil {
		t.Fatalf("Failed to load enemy template: %v", err)
	}
	if e.Name != "Ravine Wolf" {
		t.Errorf("Expected name 'Ravine Wolf', got %q", e.Name)
	}
	if e.HPMax != 30 || e.Atk != 8 || e.Def != 4 {
		t.Errorf("Unexpected stat block: %+v", e)
	}

	if _, err := s.GetEnemyTemplate(ctx, "no_such_beast"); err == nil {
		t.Error("Expected error for missing template")
	}

	list, err := s.ListEnemyTemplates(ctx)
	if err != nil {
		t.Fatalf("Failed to list enemy templates: %v", err)
	}
	if list["Ravine Wolf"] != "ravine_wolf" {
		t.Errorf("Expected listing to map name to template ID, got %v", list)
	}
}
