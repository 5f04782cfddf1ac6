package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/internal/services/events"
	"github.com/verdantpeak/cultivation-engine/internal/storage"
	"github.com/verdantpeak/cultivation-engine/pkg/combat"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// SessionManager tracks the in-memory combat session per run. Sessions
// are ephemeral: they live between the turn that opened them and the
// action that resolves them, and are never persisted. The turn lock
// taken by the opening turn stays held for the session's lifetime so no
// turn can interleave with the session's bound state; the manager
// remembers the lock owner so combat actions can refresh it.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*combat.Session
	states   map[uuid.UUID]*state.GameState
	owners   map[uuid.UUID]string
}

// NewSessionManager creates an empty session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[uuid.UUID]*combat.Session),
		states:   make(map[uuid.UUID]*state.GameState),
		owners:   make(map[uuid.UUID]string),
	}
}

// Open starts a combat session for a run. A run can hold only one open
// session at a time. lockOwner is the turn-lock owner that opened the
// session and keeps holding the lock until the session closes.
func (m *SessionManager) Open(runID uuid.UUID, gs *state.GameState, enemy combat.Enemy, dungeon bool, lockOwner string, logger *slog.Logger) (*combat.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[runID]; exists {
		return nil, fmt.Errorf("run %s already has an open combat session", runID)
	}
	session := combat.NewSession(runID, gs, enemy, dungeon, combat.WithLogger(logger))
	m.sessions[runID] = session
	m.states[runID] = gs
	m.owners[runID] = lockOwner
	return session, nil
}

// Get returns the open session and its bound game state for a run
func (m *SessionManager) Get(runID uuid.UUID) (*combat.Session, *state.GameState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[runID]
	if !ok {
		return nil, nil, false
	}
	return session, m.states[runID], true
}

// LockOwner returns the turn-lock owner recorded when the run's session
// was opened
func (m *SessionManager) LockOwner(runID uuid.UUID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[runID]
	return owner, ok
}

// Close tears down the run's session
func (m *SessionManager) Close(runID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, runID)
	delete(m.states, runID)
	delete(m.owners, runID)
}

// CombatActionRequest is one player combat input
type CombatActionRequest struct {
	Action  string `json:"action"`
	SkillID string `json:"skill_id,omitempty"`
}

// CombatResponse is the session snapshot returned from combat endpoints
type CombatResponse struct {
	SessionID  string            `json:"session_id"`
	Phase      combat.Phase      `json:"phase"`
	PlayerTurn bool              `json:"player_turn"`
	PlayerHP   int               `json:"player_hp"`
	PlayerQi   int               `json:"player_qi"`
	Enemy      combat.Enemy      `json:"enemy"`
	Log        []combat.LogEntry `json:"log,omitempty"`
	Reward     *combat.Reward    `json:"reward,omitempty"`
}

// CombatHandler drives combat sessions opened by turn resolution.
// GET /v1/runs/{id}/combat          - session state
// POST /v1/runs/{id}/combat/action  - resolve one player action
type CombatHandler struct {
	storage     storage.Storage
	sessions    *SessionManager
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewCombatHandler(logger *slog.Logger, s storage.Storage, sessions *SessionManager, broadcaster *events.Broadcaster) *CombatHandler {
	return &CombatHandler{
		storage:     s,
		sessions:    sessions,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (h *CombatHandler) handleCombat(w http.ResponseWriter, r *http.Request, runID uuid.UUID, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		h.handleState(w, runID)
	case len(rest) == 1 && rest[0] == "action" && r.Method == http.MethodPost:
		h.handleAction(w, r, runID)
	default:
		h.logger.Warn("Unsupported combat route", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Unsupported combat route")
	}
}

func (h *CombatHandler) handleState(w http.ResponseWriter, runID uuid.UUID) {
	session, gs, ok := h.sessions.Get(runID)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "No open combat session for this run")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snapshot(session, gs, nil, nil)); err != nil {
		h.logger.Error("Failed to encode combat state response", "error", err)
	}
}

func (h *CombatHandler) handleAction(w http.ResponseWriter, r *http.Request, runID uuid.UUID) {
	session, gs, ok := h.sessions.Get(runID)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "No open combat session for this run")
		return
	}

	var req CombatActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in combat action body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	// The opening turn's lock protects the session's bound state for the
	// whole fight. Extend it for this action, taking it back if it
	// expired between actions.
	owner, _ := h.sessions.LockOwner(runID)
	held, err := h.storage.RefreshTurnLock(r.Context(), runID, owner, turnLockTTL)
	if err != nil {
		h.logger.Error("Failed to refresh turn lock", "error", err, "run_id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to refresh turn lock")
		return
	}
	if !held {
		locked, err := h.storage.AcquireTurnLock(r.Context(), runID, owner, turnLockTTL)
		if err != nil {
			h.logger.Error("Failed to acquire turn lock", "error", err, "run_id", runID.String())
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to acquire turn lock")
			return
		}
		if !locked {
			writeError(w, h.logger, http.StatusConflict, "A turn is already being applied to this run")
			return
		}
	}

	action := combat.PlayerAction{
		Kind:    combat.ActionKind(req.Action),
		SkillID: req.SkillID,
	}

	entries, err := session.Act(action)
	if err != nil {
		if errors.Is(err, combat.ErrActionDeclined) {
			writeError(w, h.logger, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("Combat action failed", "error", err, "run_id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Combat action failed")
		return
	}

	// The enemy answers in the same request; pacing is the client's job.
	if session.Phase == combat.PhaseAwaitingEnemyAction {
		enemyEntries, err := session.ResolveEnemyTurn()
		if err != nil {
			h.logger.Error("Enemy turn failed", "error", err, "run_id", runID.String())
			writeError(w, h.logger, http.StatusInternalServerError, "Enemy turn failed")
			return
		}
		entries = append(entries, enemyEntries...)
	}

	if h.broadcaster != nil {
		if err := h.broadcaster.PublishCombatRound(r.Context(), runID, session.ID.String(),
			string(session.Phase), gs.Stats.HP, session.Enemy.HP); err != nil {
			h.logger.Error("Failed to publish combat round event", "error", err)
		}
	}

	var reward *combat.Reward
	if session.Phase.Terminal() {
		if session.Phase == combat.PhaseVictory {
			won := combat.VictoryReward(session.Enemy, session.Dungeon)
			gs.Inventory.Silver += won.Silver
			gs.Inventory.SpiritStones += won.SpiritStones
			reward = &won
		}

		if err := h.storage.SaveGameState(r.Context(), runID, gs); err != nil {
			h.logger.Error("Failed to save run after combat", "error", err, "run_id", runID.String())
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save run after combat")
			return
		}
		h.sessions.Close(runID)
		if err := h.storage.ReleaseTurnLock(r.Context(), runID, owner); err != nil {
			h.logger.Error("Failed to release turn lock", "error", err, "run_id", runID.String())
		}

		if h.broadcaster != nil {
			if err := h.broadcaster.PublishCombatEnded(r.Context(), runID, session.ID.String(), string(session.Phase)); err != nil {
				h.logger.Error("Failed to publish combat ended event", "error", err)
			}
		}

		h.logger.Info("Combat session closed",
			"run_id", runID.String(),
			"session_id", session.ID.String(),
			"phase", session.Phase)
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snapshot(session, gs, entries, reward)); err != nil {
		h.logger.Error("Failed to encode combat action response", "error", err)
	}
}

func snapshot(session *combat.Session, gs *state.GameState, entries []combat.LogEntry, reward *combat.Reward) CombatResponse {
	return CombatResponse{
		SessionID:  session.ID.String(),
		Phase:      session.Phase,
		PlayerTurn: session.PlayerTurn,
		PlayerHP:   gs.Stats.HP,
		PlayerQi:   gs.Stats.Qi,
		Enemy:      session.Enemy,
		Log:        entries,
		Reward:     reward,
	}
}
