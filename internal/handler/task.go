package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pjhalloran/questkeep/internal/auth"
	"github.com/pjhalloran/questkeep/internal/engine"
	"github.com/pjhalloran/questkeep/internal/model"
)

type TaskHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewTaskHandler(e *engine.Engine, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{engine: e, logger: logger}
}

type definitionRequest struct {
	Name                   string `json:"name"`
	Category               string `json:"category"`
	Frequency              string `json:"frequency"`
	XPYoung                int    `json:"xp_young"`
	XPOld                  int    `json:"xp_old"`
	GoldYoung              int    `json:"gold_young"`
	GoldOld                int    `json:"gold_old"`
	RequiresPhoto          bool   `json:"requires_photo"`
	RequiresParentApproval bool   `json:"requires_parent_approval"`
	TimeLimitMinutes       int    `json:"time_limit_minutes"`
	Notes                  string `json:"notes"`
}

func (r definitionRequest) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "name is required"
	}
	switch r.Frequency {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyBiWeekly, model.FrequencyMonthly:
	default:
		return "invalid frequency"
	}
	if r.XPYoung < 0 || r.XPOld < 0 || r.GoldYoung < 0 || r.GoldOld < 0 {
		return "XP and gold values must be >= 0"
	}
	return ""
}

func (r definitionRequest) toModel() model.TaskDefinition {
	return model.TaskDefinition{
		Name:                   strings.TrimSpace(r.Name),
		Category:               r.Category,
		Frequency:              r.Frequency,
		XPYoung:                r.XPYoung,
		XPOld:                  r.XPOld,
		GoldYoung:              r.GoldYoung,
		GoldOld:                r.GoldOld,
		RequiresPhoto:          r.RequiresPhoto,
		RequiresParentApproval: r.RequiresParentApproval,
		TimeLimitMinutes:       r.TimeLimitMinutes,
		Notes:                  r.Notes,
	}
}

func (h *TaskHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req definitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	def, err := h.engine.Tasks().CreateDefinition(req.toModel())
	if err != nil {
		h.logger.Error("create definition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (h *TaskHandler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.engine.Tasks().ListDefinitions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if defs == nil {
		defs = []model.TaskDefinition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (h *TaskHandler) UpdateDefinition(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.engine.Tasks().GetDefinition(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req definitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	def, err := h.engine.Tasks().UpdateDefinition(id, req.toModel())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *TaskHandler) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.engine.Tasks().GetDefinition(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.engine.Tasks().DeleteDefinition(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBoard handles GET /api/tasks: every instance joined with its
// definition, the daily quest board.
func (h *TaskHandler) ListBoard(w http.ResponseWriter, r *http.Request) {
	details, err := h.engine.Tasks().ListInstanceDetails()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if details == nil {
		details = []model.InstanceDetail{}
	}
	writeJSON(w, http.StatusOK, details)
}

// ListPendingReview handles GET /api/tasks/pending-review for the parent
// review queue.
func (h *TaskHandler) ListPendingReview(w http.ResponseWriter, r *http.Request) {
	pending, err := h.engine.Tasks().ListPendingReview()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pending tasks")
		return
	}
	if pending == nil {
		pending = []model.InstanceDetail{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// Select handles POST /api/tasks/{id}/select.
func (h *TaskHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	inst, err := h.engine.SelectTask(auth.AccountID(r.Context()), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

type submitRequest struct {
	PhotoSupplied bool `json:"photo_supplied"`
}

// Submit handles POST /api/tasks/{id}/submit.
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req submitRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	inst, err := h.engine.SubmitTask(auth.AccountID(r.Context()), id, req.PhotoSupplied)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// Retry handles POST /api/tasks/{id}/retry.
func (h *TaskHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	inst, err := h.engine.RetryTask(auth.AccountID(r.Context()), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// Verify handles POST /api/tasks/{id}/verify (parent only).
func (h *TaskHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	inst, err := h.engine.VerifyTask(auth.AccountID(r.Context()), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

type denyRequest struct {
	Feedback string `json:"feedback"`
}

// Deny handles POST /api/tasks/{id}/deny (parent only).
func (h *TaskHandler) Deny(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req denyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	inst, err := h.engine.DenyTask(auth.AccountID(r.Context()), id, req.Feedback)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}
