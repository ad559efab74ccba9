package handlers

import (
	"botmaster-console/fleet"
	"botmaster-console/models"
	"botmaster-console/registry"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps domain and registry errors onto console status codes.
func writeFailure(w http.ResponseWriter, err error) {
	var (
		validation *fleet.ValidationError
		transport  *registry.TransportError
		app        *registry.ApplicationError
	)

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, fleet.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fleet.ErrAlreadyAttached), errors.Is(err, fleet.ErrNotAttached),
		errors.Is(err, models.ErrInconsistentSession):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &app):
		writeError(w, http.StatusBadGateway, app.Message)
	case errors.As(err, &transport):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("[API] Unhandled error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
