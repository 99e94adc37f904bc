package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pjhalloran/questkeep/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// writeEngineError maps the engine's sentinel errors onto HTTP statuses.
// Unknown errors become a 500 with a generic message.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, engine.ErrFeedbackRequired),
		errors.Is(err, engine.ErrPhotoRequired),
		errors.Is(err, engine.ErrInvalidSeverity),
		errors.Is(err, engine.ErrNotChild):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrDailyCapReached),
		errors.Is(err, engine.ErrInsufficientXP),
		errors.Is(err, engine.ErrRewardUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
