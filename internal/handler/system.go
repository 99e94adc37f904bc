package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pjhalloran/questkeep/internal/engine"
)

type SystemHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSystemHandler(e *engine.Engine, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{engine: e, logger: logger}
}

// ResetDay handles POST /api/system/reset (parent only). The reset is
// idempotent per calendar day, so a second call is harmless.
func (h *SystemHandler) ResetDay(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ResetAll(); err != nil {
		h.logger.Error("daily reset", "error", err)
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset complete"})
}

// GetSettings handles GET /api/settings.
func (h *SystemHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.engine.Settings().GetAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/settings (parent only).
func (h *SystemHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	for key, value := range req {
		if err := h.engine.Settings().Set(key, value); err != nil {
			h.logger.Error("update setting", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update settings")
			return
		}
	}

	settings, err := h.engine.Settings().GetAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
