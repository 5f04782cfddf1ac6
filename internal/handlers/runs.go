package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/verdantpeak/cultivation-engine/internal/storage"
	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error body with the given status
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// RunHandler handles cultivation run lifecycle and dispatches turn and
// combat subresources.
// Routes:
// POST /v1/runs                      - Create new run
// GET /v1/runs/{id}                  - Read run state by ID
// DELETE /v1/runs/{id}               - Delete run by ID
// POST /v1/runs/{id}/turn            - Apply a turn result (TurnHandler)
// GET /v1/runs/{id}/combat           - Combat session state (CombatHandler)
// POST /v1/runs/{id}/combat/action   - Combat action (CombatHandler)
type RunHandler struct {
	storage storage.Storage
	logger  *slog.Logger
	turn    *TurnHandler
	combat  *CombatHandler
}

func NewRunHandler(logger *slog.Logger, s storage.Storage, turn *TurnHandler, combat *CombatHandler) *RunHandler {
	return &RunHandler{
		storage: s,
		logger:  logger,
		turn:    turn,
		combat:  combat,
	}
}

func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/runs"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.logger.Warn("Method not allowed for runs collection", "method", r.Method)
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a run.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	runID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid run ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid run ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, runID)
		case http.MethodDelete:
			h.handleDelete(w, r, runID)
		default:
			h.logger.Warn("Method not allowed for run resource", "method", r.Method)
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	switch parts[1] {
	case "turn":
		h.turn.handleTurn(w, r, runID)
	case "combat":
		h.combat.handleCombat(w, r, runID, parts[2:])
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown run subresource: "+parts[1])
	}
}

// CreateRunRequest defines the optional request body for creating a run
type CreateRunRequest struct {
	Location string `json:"location,omitempty"`
	Region   string `json:"region,omitempty"`
}

func (h *RunHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new run")

	// The body is optional; an empty body starts at the defaults.
	var req CreateRunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			h.logger.Warn("Invalid JSON in request body", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
	}

	gs := state.NewGameState()
	if req.Location != "" {
		gs.Location = req.Location
	}
	if req.Region != "" {
		gs.Region = req.Region
	}

	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save new run", "error", err, "id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create run")
		return
	}

	h.logger.Debug("Run created successfully", "id", gs.ID.String())
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode run response", "error", err)
	}
}

func (h *RunHandler) handleRead(w http.ResponseWriter, r *http.Request, runID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), runID)
	if err != nil {
		h.logger.Error("Failed to load run", "error", err, "id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load run")
		return
	}

	if gs == nil {
		h.logger.Warn("Run not found", "id", runID.String())
		writeError(w, h.logger, http.StatusNotFound, "Run not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode run response", "error", err)
	}
}

func (h *RunHandler) handleDelete(w http.ResponseWriter, r *http.Request, runID uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), runID); err != nil {
		h.logger.Error("Failed to delete run", "error", err, "id", runID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete run")
		return
	}
	h.logger.Debug("Run deleted successfully", "id", runID.String())
	w.WriteHeader(http.StatusNoContent)
}
