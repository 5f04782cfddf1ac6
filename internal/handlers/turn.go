package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/internal/services/events"
	"github.com/verdantpeak/cultivation-engine/internal/services/queue"
	"github.com/verdantpeak/cultivation-engine/internal/storage"
	"github.com/verdantpeak/cultivation-engine/pkg/combat"
	queuePkg "github.com/verdantpeak/cultivation-engine/pkg/queue"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

const turnLockTTL = 30 * time.Second

// TurnResponse is the synchronous turn application response
type TurnResponse struct {
	GameState       *state.GameState   `json:"game_state"`
	Outcome         *state.TurnOutcome `json:"outcome"`
	CombatSessionID string             `json:"combat_session_id,omitempty"`
}

// AsyncTurnResponse acknowledges an enqueued turn request
type AsyncTurnResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// TurnHandler applies turn results to runs.
// POST /v1/runs/{id}/turn          - apply synchronously
// POST /v1/runs/{id}/turn?async=true - enqueue for a worker
type TurnHandler struct {
	storage     storage.Storage
	turnQueue   *queue.TurnQueue
	broadcaster *events.Broadcaster
	sessions    *SessionManager
	logger      *slog.Logger
	ownerID     string
}

func NewTurnHandler(logger *slog.Logger, s storage.Storage, turnQueue *queue.TurnQueue, broadcaster *events.Broadcaster, sessions *SessionManager) *TurnHandler {
	return &TurnHandler{
		storage:     s,
		turnQueue:   turnQueue,
		broadcaster: broadcaster,
		sessions:    sessions,
		logger:      logger,
		ownerID:     "api-" + uuid.New().String()[:8],
	}
}

func (h *TurnHandler) handleTurn(w http.ResponseWriter, r *http.Request, runID uuid.UUID) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var tr state.TurnResult
	if err := json.NewDecoder(r.Body).Decode(&tr); err != nil {
		h.logger.Warn("Invalid JSON in turn request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	// An open combat session owns the run's state until it resolves.
	// Turns landing mid-fight would race the session's bound snapshot.
	if h.sessions != nil {
		if _, _, open := h.sessions.Get(runID); open {
			writeError(w, h.logger, http.StatusConflict, "A combat session is open for this run. Resolve it before applying turns.")
			return
		}
	}

	if r.URL.Query().Get("async") == "true" {
		h.handleAsync(w, r, runID, &tr)
		return
	}

	// One in-flight turn per run. A held lock means a worker or another
	// request is mid-turn.
	locked, err := h.storage.AcquireTurnLock(r.Context(), runID, h.ownerID, turnLockTTL)
	if err != nil {
		h.logger.Error("Failed to acquire turn lock", "error", err, "run_id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to acquire turn lock")
		return
	}
	if !locked {
		writeError(w, h.logger, http.StatusConflict, "A turn is already being applied to this run")
		return
	}
	// When the turn opens combat the lock transfers to the session and
	// is released by the combat handler's terminal save.
	keepLock := false
	defer func() {
		if keepLock {
			return
		}
		if err := h.storage.ReleaseTurnLock(r.Context(), runID, h.ownerID); err != nil {
			h.logger.Error("Failed to release turn lock", "error", err, "run_id", runID.String())
		}
	}()

	gs, err := h.storage.LoadGameState(r.Context(), runID)
	if err != nil {
		h.logger.Error("Failed to load run", "error", err, "id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load run")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Run not found")
		return
	}

	outcome, err := state.ResolveTurn(gs, &tr, h.logger)
	if err != nil {
		var schemaErr *state.SchemaError
		if errors.As(err, &schemaErr) {
			h.logger.Warn("Turn result failed validation", "error", err, "run_id", runID.String())
			writeError(w, h.logger, http.StatusUnprocessableEntity, schemaErr.Error())
			return
		}
		h.logger.Error("Failed to resolve turn", "error", err, "run_id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to resolve turn")
		return
	}

	if err := h.storage.SaveGameState(r.Context(), runID, gs); err != nil {
		h.logger.Error("Failed to save run after turn", "error", err, "id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save run")
		return
	}

	resp := TurnResponse{
		GameState: gs,
		Outcome:   outcome,
	}

	if spec := outcome.Encounter; spec != nil {
		session, err := h.openCombat(r, runID, gs, spec)
		if err != nil {
			h.logger.Error("Failed to open combat session", "error", err, "run_id", runID.String())
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to open combat session")
			return
		}
		resp.CombatSessionID = session.ID.String()
		keepLock = true
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode turn response", "error", err)
	}
}

func (h *TurnHandler) handleAsync(w http.ResponseWriter, r *http.Request, runID uuid.UUID, tr *state.TurnResult) {
	if h.turnQueue == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Asynchronous turns are not enabled")
		return
	}

	// Reject malformed results before enqueueing so the caller hears
	// about schema errors synchronously.
	if err := tr.Validate(); err != nil {
		h.logger.Warn("Turn result failed validation", "error", err, "run_id", runID.String())
		writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}

	req := queuePkg.NewTurnRequest(runID, tr)
	if err := h.turnQueue.EnqueueRequest(r.Context(), req); err != nil {
		h.logger.Error("Failed to enqueue turn request", "error", err, "run_id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to enqueue turn request")
		return
	}

	if h.broadcaster != nil {
		if err := h.broadcaster.PublishTurnQueued(r.Context(), runID, req.RequestID); err != nil {
			h.logger.Error("Failed to publish queued event", "error", err)
		}
	}

	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(AsyncTurnResponse{
		RequestID: req.RequestID,
		Status:    "queued",
	}); err != nil {
		h.logger.Error("Failed to encode async turn response", "error", err)
	}
}

// openCombat builds the enemy from the encounter spec (filling from a
// stored template when one is named) and opens the run's session.
func (h *TurnHandler) openCombat(r *http.Request, runID uuid.UUID, gs *state.GameState, spec *state.EnemySpec) (*combat.Session, error) {
	var template *combat.Enemy
	if spec.TemplateID != "" {
		t, err := h.storage.GetEnemyTemplate(r.Context(), spec.TemplateID)
		if err != nil {
			h.logger.Warn("Enemy template not found, using spec as-is", "template_id", spec.TemplateID, "error", err)
		} else {
			template = t
		}
	}

	enemy := combat.NewEnemy(template, *spec)
	session, err := h.sessions.Open(runID, gs, enemy, spec.Dungeon, h.ownerID, h.logger)
	if err != nil {
		return nil, err
	}

	if h.broadcaster != nil {
		if err := h.broadcaster.PublishCombatStarted(r.Context(), runID, session.ID.String(), enemy.Name); err != nil {
			h.logger.Error("Failed to publish combat started event", "error", err)
		}
	}

	h.logger.Info("Combat session opened",
		"run_id", runID.String(),
		"session_id", session.ID,
		"enemy", enemy.Name)

	return session, nil
}
