package handlers

import (
	"botmaster-console/models"
	"botmaster-console/store"
	"net/http"
	"strings"
)

// SettingsHandler stores console preferences such as the default server
// and naming policy offered in the batch form.
type SettingsHandler struct {
	store *store.Store
}

func NewSettingsHandler(s *store.Store) *SettingsHandler {
	return &SettingsHandler{store: s}
}

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetAllSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings []models.Setting
	if err := decodeBody(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for _, st := range settings {
		if strings.TrimSpace(st.Key) == "" {
			writeError(w, http.StatusBadRequest, "Setting key is required")
			return
		}
	}
	for _, st := range settings {
		if err := h.store.SetSetting(st.Key, st.Value); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	h.List(w, r)
}
