package handlers

import (
	"botmaster-console/models"
	"botmaster-console/registry"
	"net/http"
	"strings"
)

type ServerHandler struct {
	servers *registry.Servers
}

func NewServerHandler(servers *registry.Servers) *ServerHandler {
	return &ServerHandler{servers: servers}
}

func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	servers, err := h.servers.List(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if servers == nil {
		servers = []models.GameServer{}
	}
	writeJSON(w, http.StatusOK, servers)
}

func (h *ServerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddServerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Host = strings.TrimSpace(req.Host)
	if req.Host == "" {
		writeError(w, http.StatusBadRequest, "Host is required")
		return
	}
	if req.Port < 1 || req.Port > 65535 {
		writeError(w, http.StatusBadRequest, "Port must be between 1 and 65535")
		return
	}

	reply, err := h.servers.Add(r.Context(), req.Host, req.Port)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: reply.Message})
}

func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	reply, err := h.servers.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: reply.Message})
}

// Query asks the registry to ping the game server and refresh its status.
func (h *ServerHandler) Query(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	reply, err := h.servers.Query(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: reply.Message})
}
