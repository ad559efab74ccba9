package handlers

import (
	"botmaster-console/registry"
	"net/http"
)

type DashboardHandler struct {
	dashboard *registry.Dashboard
}

func NewDashboardHandler(d *registry.Dashboard) *DashboardHandler {
	return &DashboardHandler{dashboard: d}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Summary(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
