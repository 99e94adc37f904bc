package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pjhalloran/questkeep/internal/auth"
	"github.com/pjhalloran/questkeep/internal/economy"
	"github.com/pjhalloran/questkeep/internal/engine"
	"github.com/pjhalloran/questkeep/internal/model"
)

type RewardHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewRewardHandler(e *engine.Engine, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{engine: e, logger: logger}
}

type rewardRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Tier             string     `json:"tier"`
	XPCost           int        `json:"xp_cost"`
	MinLevel         int        `json:"min_level"`
	RequiresApproval bool       `json:"requires_approval"`
	Unlimited        bool       `json:"unlimited"`
	Available        bool       `json:"available"`
	ExpiresAt        *time.Time `json:"expires_at"`
}

func (r rewardRequest) validate() string {
	if strings.TrimSpace(r.Title) == "" {
		return "title is required"
	}
	switch r.Tier {
	case model.TierStandard, model.TierElite, model.TierEpic, model.TierLegendary, model.TierSpecial:
	default:
		return "invalid tier"
	}
	if r.XPCost < 0 {
		return "xp_cost must be >= 0"
	}
	if r.MinLevel < 0 {
		return "min_level must be >= 0"
	}
	return ""
}

func (r rewardRequest) toModel() model.Reward {
	return model.Reward{
		Title:            strings.TrimSpace(r.Title),
		Description:      r.Description,
		Tier:             r.Tier,
		XPCost:           r.XPCost,
		MinLevel:         r.MinLevel,
		RequiresApproval: r.RequiresApproval,
		Unlimited:        r.Unlimited,
		Available:        r.Available,
		ExpiresAt:        r.ExpiresAt,
	}
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	reward, err := h.engine.Rewards().Create(req.toModel())
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.engine.Rewards().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

// ListAvailable handles GET /api/rewards/available: the shop as the
// authenticated child sees it. Unaffordable rewards are listed; claiming
// them is what fails.
func (h *RewardHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	account, err := h.engine.Accounts().GetByID(actor.AccountID)
	if err != nil || account == nil {
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	rewards, err := h.engine.Rewards().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}

	available := economy.ListAvailable(rewards, account.Level, h.engine.Clock().Now())

	type shopItem struct {
		model.Reward
		Progress int `json:"progress"`
	}
	items := make([]shopItem, 0, len(available))
	for _, rw := range available {
		items = append(items, shopItem{Reward: rw, Progress: economy.RewardProgress(account.CurrentXP, rw)})
	}
	writeJSON(w, http.StatusOK, items)
}

// ListLimitedTime handles GET /api/rewards/limited: expiring rewards sorted
// by soonest expiry.
func (h *RewardHandler) ListLimitedTime(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.engine.Rewards().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	limited := economy.LimitedTime(rewards, h.engine.Clock().Now())
	if limited == nil {
		limited = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, limited)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.engine.Rewards().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	reward, err := h.engine.Rewards().Update(id, req.toModel())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.engine.Rewards().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	if err := h.engine.Rewards().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete reward")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Claim handles POST /api/rewards/{id}/claim.
func (h *RewardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	claim, err := h.engine.ClaimReward(auth.AccountID(r.Context()), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

// ListPendingClaims handles GET /api/claims/pending (parent only).
func (h *RewardHandler) ListPendingClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.engine.Rewards().ListPendingClaims()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	writeJSON(w, http.StatusOK, claims)
}

// ListClaimsByChild handles GET /api/accounts/{id}/claims.
func (h *RewardHandler) ListClaimsByChild(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	claims, err := h.engine.Rewards().ListClaimsByChild(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	writeJSON(w, http.StatusOK, claims)
}

// ApproveClaim handles POST /api/claims/{id}/approve (parent only).
func (h *RewardHandler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	claim, err := h.engine.ApproveClaim(auth.AccountID(r.Context()), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// DenyClaim handles POST /api/claims/{id}/deny (parent only).
func (h *RewardHandler) DenyClaim(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	claim, err := h.engine.DenyClaim(auth.AccountID(r.Context()), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// CashOutTiers handles GET /api/rewards/cash-out: dollar value and XP cost
// per tier with the XP-to-dollar rate.
func (h *RewardHandler) CashOutTiers(w http.ResponseWriter, r *http.Request) {
	type tierInfo struct {
		Amount int     `json:"amount"`
		XPCost int     `json:"xp_cost"`
		Rate   float64 `json:"rate"`
	}
	out := make(map[string]tierInfo)
	for tier, value := range economy.CashOutTiers() {
		out[tier] = tierInfo{Amount: value.Amount, XPCost: value.XPCost, Rate: economy.CashOutRate(tier)}
	}
	writeJSON(w, http.StatusOK, out)
}
