package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pjhalloran/questkeep/internal/cycle"
	"github.com/pjhalloran/questkeep/internal/engine"
	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/progression"
)

type AccountHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewAccountHandler(e *engine.Engine, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{engine: e, logger: logger}
}

type accountRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Age  int    `json:"age"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Role != model.RoleParent && req.Role != model.RoleChild {
		writeError(w, http.StatusBadRequest, "role must be parent or child")
		return
	}
	if req.Age < 0 {
		writeError(w, http.StatusBadRequest, "age must be >= 0")
		return
	}

	account, err := h.engine.Accounts().Create(req.Name, req.Role, req.Age)
	if err != nil {
		h.logger.Error("create account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.engine.Accounts().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.engine.Accounts().ListChildren()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list children")
		return
	}
	if children == nil {
		children = []model.Account{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	account, err := h.engine.Accounts().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.engine.Accounts().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	account, err := h.engine.Accounts().Update(id, req.Name, req.Age)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update account")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.engine.Accounts().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	if err := h.engine.Accounts().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type accountSummary struct {
	Account     *model.Account      `json:"account"`
	Progression progression.Summary `json:"progression"`
	DailyXP     int                 `json:"daily_xp"`
	DailyXPCap  int                 `json:"daily_xp_cap"`
	Capped      bool                `json:"capped"`
}

// Summary handles GET /api/accounts/{id}/summary: level progression plus
// today's XP against the daily cap.
func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	account, err := h.engine.Accounts().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	details, err := h.engine.Tasks().ListInstanceDetails()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	today := h.engine.Clock().Today()
	cap := h.engine.Settings().GetInt("daily_xp_cap", cycle.DefaultDailyXPCap)
	earned := cycle.DailyXPEarned(account.ID, account.Age, details, today)

	writeJSON(w, http.StatusOK, accountSummary{
		Account:     account,
		Progression: progression.Progress(account.CurrentXP),
		DailyXP:     earned,
		DailyXPCap:  cap,
		Capped:      earned >= cap,
	})
}
