package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pjhalloran/questkeep/internal/auth"
	"github.com/pjhalloran/questkeep/internal/engine"
	"github.com/pjhalloran/questkeep/internal/ledger"
	"github.com/pjhalloran/questkeep/internal/model"
)

type LedgerHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewLedgerHandler(e *engine.Engine, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{engine: e, logger: logger}
}

type deductionRequest struct {
	ChildID           int64  `json:"child_id"`
	Amount            int    `json:"amount"`
	Severity          string `json:"severity"`
	Reason            string `json:"reason"`
	RedemptionQuest   bool   `json:"redemption_quest"`
	RedemptionDetails string `json:"redemption_details"`
}

// ApplyDeduction handles POST /api/deductions (parent only).
func (h *LedgerHandler) ApplyDeduction(w http.ResponseWriter, r *http.Request) {
	var req deductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	entry, err := h.engine.ApplyDeduction(ledger.Deduction{
		ChildID:           req.ChildID,
		Amount:            req.Amount,
		Severity:          req.Severity,
		Reason:            req.Reason,
		RedemptionQuest:   req.RedemptionQuest,
		RedemptionDetails: req.RedemptionDetails,
		AppliedBy:         auth.AccountID(r.Context()),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// History handles GET /api/accounts/{id}/deductions.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entries, err := h.engine.DeductionHistory(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if entries == nil {
		entries = []model.XPLedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// OpenRedemptionQuests handles GET /api/accounts/{id}/redemption-quests.
func (h *LedgerHandler) OpenRedemptionQuests(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	quests, err := h.engine.OpenRedemptionQuests(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if quests == nil {
		quests = []model.XPLedgerEntry{}
	}
	writeJSON(w, http.StatusOK, quests)
}

// CompleteRedemption handles POST /api/deductions/{id}/redeem (parent only).
func (h *LedgerHandler) CompleteRedemption(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entry, err := h.engine.CompleteRedemption(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
