package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/pjhalloran/questkeep/internal/auth"
	"github.com/pjhalloran/questkeep/internal/middleware"
	"github.com/pjhalloran/questkeep/internal/store"
)

type AuthHandler struct {
	accounts *store.AccountStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(as *store.AccountStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: as, sessions: ss, logger: logger}
}

type loginRequest struct {
	AccountID int64  `json:"account_id"`
	PIN       string `json:"pin"`
}

// Login handles POST /api/auth/login. Accounts without a PIN log in with an
// empty one; that is how young children pick their profile.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	account, err := h.accounts.GetByID(req.AccountID)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if account == nil {
		writeError(w, http.StatusUnauthorized, "invalid account or PIN")
		return
	}

	if account.HasPIN {
		hash, err := h.accounts.GetPINHash(account.ID)
		if err != nil {
			h.logger.Error("login pin hash", "error", err)
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)) != nil {
			writeError(w, http.StatusUnauthorized, "invalid account or PIN")
			return
		}
	}

	sess, err := h.sessions.Create(account.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login", "account", account.ID, "role", account.Role)
	writeJSON(w, http.StatusOK, map[string]any{"token": sess.Token, "account": account})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if ok {
		if err := h.sessions.Delete(actor.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	account, err := h.accounts.GetByID(actor.AccountID)
	if err != nil || account == nil {
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type setPINRequest struct {
	PIN string `json:"pin"`
}

// SetPIN handles PUT /api/accounts/{id}/pin. An empty PIN clears it.
func (h *AuthHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req setPINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	account, err := h.accounts.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	if req.PIN == "" {
		if err := h.accounts.ClearPIN(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to clear PIN")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if len(req.PIN) < 4 {
		writeError(w, http.StatusBadRequest, "PIN must be at least 4 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash PIN")
		return
	}
	if err := h.accounts.SetPIN(id, string(hash)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
