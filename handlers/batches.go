package handlers

import (
	"botmaster-console/models"
	"botmaster-console/store"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
)

type BatchHandler struct {
	store *store.Store
}

func NewBatchHandler(s *store.Store) *BatchHandler {
	return &BatchHandler{store: s}
}

func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	batches, err := h.store.GetRecentBatches(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch batches")
		return
	}
	if batches == nil {
		batches = []models.BatchRecord{}
	}
	writeJSON(w, http.StatusOK, batches)
}

func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	batch, err := h.store.GetBatch(r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "Batch not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch batch")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}
