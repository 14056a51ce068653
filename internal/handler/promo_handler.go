package handler

import (
	"net/http"

	"course-market/internal/model"
	"course-market/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// PromoHandler handles promo code HTTP requests.
type PromoHandler struct {
	service service.PromoService
	logger  zerolog.Logger
}

// NewPromoHandler creates a new promo handler.
func NewPromoHandler(service service.PromoService, logger zerolog.Logger) *PromoHandler {
	return &PromoHandler{
		service: service,
		logger:  logger.With().Str("handler", "promo").Logger(),
	}
}

// Validate handles POST /validate-promo requests. Unknown and inactive
// codes are reported in the body with status 200.
func (h *PromoHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidatePromoRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Validate(r.Context(), req.Code, req.CourseID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// List handles GET /admin/promo-codes requests.
func (h *PromoHandler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"promoCodes": promos})
}

// Create handles POST /admin/promo-codes requests.
func (h *PromoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.PromoRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	created, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "promo": created})
}

// Toggle handles PUT /admin/promo-codes/{code} requests.
func (h *PromoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	toggled, err := h.service.Toggle(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "promo": toggled})
}

// Delete handles DELETE /admin/promo-codes/{code} requests.
func (h *PromoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["code"]); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, okResponse)
}
