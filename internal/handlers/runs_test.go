package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantpeak/cultivation-engine/internal/storage"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRunHandler(mock *storage.MockStorage) *RunHandler {
	logger := testLogger()
	sessions := NewSessionManager()
	turn := NewTurnHandler(logger, mock, nil, nil, sessions)
	combatHandler := NewCombatHandler(logger, mock, sessions, nil)
	return NewRunHandler(logger, mock, turn, combatHandler)
}

func TestRunHandler_Create(t *testing.T) {
	mock := storage.NewMockStorage()
	handler := newTestRunHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewBufferString(`{"location":"misty_valley"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var gs state.GameState
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&gs))
	assert.NotEqual(t, uuid.Nil, gs.ID)
	assert.Equal(t, "misty_valley", gs.Location)
	assert.Equal(t, 100, gs.Stats.HP)
	assert.Equal(t, "qi_condensation", gs.Progress.Realm.String())

	// Must be persisted
	saved, err := mock.LoadGameState(req.Context(), gs.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
}

func TestRunHandler_CreateEmptyBody(t *testing.T) {
	mock := storage.NewMockStorage()
	handler := newTestRunHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestRunHandler_ReadAndDelete(t *testing.T) {
	mock := storage.NewMockStorage()
	handler := newTestRunHandler(mock)

	gs := state.NewGameState()
	require.NoError(t, mock.SaveGameState(t.Context(), gs.ID, gs))

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+gs.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var loaded state.GameState
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&loaded))
	assert.Equal(t, gs.ID, loaded.ID)

	req = httptest.NewRequest(http.MethodDelete, "/v1/runs/"+gs.ID.String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	saved, err := mock.LoadGameState(t.Context(), gs.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRunHandler_ReadNotFound(t *testing.T) {
	handler := newTestRunHandler(storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRunHandler_InvalidID(t *testing.T) {
	handler := newTestRunHandler(storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRunHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestRunHandler(storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodPut, "/v1/runs/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
