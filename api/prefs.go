package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"mm-replacer/prefs"
)

type prefsResponse struct {
	prefs.Preferences
	View    prefs.View `json:"view"`
	Message string     `json:"message,omitempty"`
}

func newPrefsResponse(p prefs.Preferences) prefsResponse {
	return prefsResponse{Preferences: p, View: p.View()}
}

// hostPrefersLight reads the client hint browsers send for the
// prefers-color-scheme media query.
func hostPrefersLight(r *http.Request) bool {
	if r.Header.Get("Sec-CH-Prefers-Color-Scheme") == "light" {
		return true
	}
	return r.URL.Query().Get("prefers") == "light"
}

func (h *handler) getPrefs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
	w.Header().Add("Vary", "Sec-CH-Prefers-Color-Scheme")
	writeJSON(w, http.StatusOK, newPrefsResponse(h.app.Prefs().Current(hostPrefersLight(r))))
}

func (h *handler) putPrefs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme    string `json:"theme"`
		Contrast string `json:"contrast"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	svc := h.app.Prefs()
	// Validate both before writing either.
	var theme prefs.Theme
	var contrast prefs.Contrast
	var err error
	if req.Theme != "" {
		if theme, err = prefs.ParseTheme(req.Theme); err != nil {
			h.prefsError(w, err)
			return
		}
	}
	if req.Contrast != "" {
		if contrast, err = prefs.ParseContrast(req.Contrast); err != nil {
			h.prefsError(w, err)
			return
		}
	}

	p := svc.Current(false)
	if theme != "" {
		if p, err = svc.SetTheme(theme); err != nil {
			h.prefsError(w, err)
			return
		}
	}
	if contrast != "" {
		if p, err = svc.SetContrast(contrast); err != nil {
			h.prefsError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, newPrefsResponse(p))
}

func (h *handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Prefs().ToggleTheme()
	if err != nil {
		h.prefsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPrefsResponse(p))
}

func (h *handler) toggleContrast(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Prefs().ToggleContrast()
	if err != nil {
		h.prefsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPrefsResponse(p))
}

func (h *handler) resetPrefs(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Prefs().Reset()
	if err != nil {
		h.prefsError(w, err)
		return
	}
	resp := newPrefsResponse(p)
	resp.Message = prefs.ResetMessage
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) prefsError(w http.ResponseWriter, err error) {
	if errors.Is(err, prefs.ErrInvalidValue) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "failed to save preferences", http.StatusInternalServerError)
}
