package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/verdantpeak/cultivation-engine/internal/storage"
)

type EnemyHandler struct {
	logger  *slog.Logger
	storage storage.Storage
}

func NewEnemyHandler(logger *slog.Logger, s storage.Storage) *EnemyHandler {
	return &EnemyHandler{
		logger:  logger,
		storage: s,
	}
}

func (h *EnemyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if r.URL.Path == "/v1/enemies" || r.URL.Path == "/v1/enemies/" {
			h.ListEnemies(w, r)
		} else {
			h.GetEnemy(w, r)
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *EnemyHandler) ListEnemies(w http.ResponseWriter, r *http.Request) {
	enemies, err := h.storage.ListEnemyTemplates(r.Context())
	if err != nil {
		h.logger.Error("Failed to list enemy templates", "error", err)
		http.Error(w, "Failed to list enemy templates", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"enemies": enemies,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *EnemyHandler) GetEnemy(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/enemies/")
	templateID := strings.TrimSpace(path)

	if templateID == "" || templateID == "/" {
		http.Error(w, "Template ID is required in URL path (e.g., /v1/enemies/ravine_wolf)", http.StatusBadRequest)
		return
	}

	if strings.Contains(templateID, "..") || strings.Contains(templateID, "/") {
		http.Error(w, "Invalid template ID", http.StatusBadRequest)
		return
	}

	enemy, err := h.storage.GetEnemyTemplate(r.Context(), templateID)
	if err != nil {
		h.logger.Error("Failed to get enemy template", "templateID", templateID, "error", err)
		http.Error(w, "Enemy template not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(enemy); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
