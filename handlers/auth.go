package handlers

import (
	"botmaster-console/middleware"
	"botmaster-console/models"
	"botmaster-console/store"
	"log"
	"net/http"
	"strings"
)

type AuthHandler struct {
	store *store.Store
	auth  *middleware.Authenticator
}

func NewAuthHandler(s *store.Store, auth *middleware.Authenticator) *AuthHandler {
	return &AuthHandler{store: s, auth: auth}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "Username, display name, and password are required")
		return
	}

	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	if existing, _ := h.store.GetOperatorByUsername(req.Username); existing != nil {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	op, err := h.store.CreateOperator(req.Username, req.DisplayName, req.Password)
	if err != nil {
		log.Printf("[AUTH] Failed to create operator %s: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "Failed to create operator")
		return
	}

	h.respondWithToken(w, http.StatusCreated, op)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	op, err := h.store.GetOperatorByUsername(req.Username)
	if err != nil || !h.store.ValidatePassword(op, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondWithToken(w, http.StatusOK, op)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	op, err := h.store.GetOperatorByID(middleware.GetOperatorID(r))
	if err != nil {
		writeError(w, http.StatusNotFound, "Operator not found")
		return
	}
	writeJSON(w, http.StatusOK, op.ToResponse())
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, op *models.Operator) {
	token, err := h.auth.GenerateToken(op.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, status, models.AuthResponse{Token: token, Operator: op.ToResponse()})
}
