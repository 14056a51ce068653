package handler

import (
	"net/http"

	"course-market/internal/model"
	"course-market/internal/service"

	"github.com/rs/zerolog"
)

// AccountHandler handles sign-up, sign-in and profile requests.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("handler", "account").Logger(),
	}
}

// Signup handles POST /signup requests.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	profile, err := h.service.SignUp(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "user": profile})
}

// Login handles POST /login requests.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	token, err := h.service.SignIn(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// GetProfile handles GET /profile requests.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.logger)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

// UpdateProfile handles PUT /profile requests.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.logger)
	if !ok {
		return
	}

	var req model.ProfileUpdateRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), caller, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "profile": profile})
}
