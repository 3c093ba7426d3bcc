package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"mm-replacer/dictionary"
	"mm-replacer/store"
)

func (h *handler) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Status())
}

// postSync runs a sync. Failures are reported in the body with a status code
// matching their class; the previous rule list stays in use either way.
func (h *handler) postSync(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid force parameter", http.StatusBadRequest)
			return
		}
		force = b
	}

	status, err := h.app.Sync(r.Context(), force)
	if err != nil {
		h.logger.Warn("sync failed", zap.Error(err))
		writeJSON(w, syncErrorStatus(err), status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func syncErrorStatus(err error) int {
	switch {
	case errors.Is(err, dictionary.ErrNetwork), errors.Is(err, dictionary.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
