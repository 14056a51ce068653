package handler

import (
	"net/http"

	"course-market/internal/model"
	"course-market/internal/service"

	"github.com/rs/zerolog"
)

// FeedbackHandler handles feedback and contact form requests.
type FeedbackHandler struct {
	service service.FeedbackService
	logger  zerolog.Logger
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service service.FeedbackService, logger zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		logger:  logger.With().Str("handler", "feedback").Logger(),
	}
}

// SubmitFeedback handles POST /feedback requests.
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req model.FeedbackRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	feedback, err := h.service.SubmitFeedback(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "feedback": feedback})
}

// SubmitContact handles POST /contact requests.
func (h *FeedbackHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	msg, err := h.service.SubmitContact(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "message": msg})
}

// ListFeedback handles GET /admin/feedback requests.
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListFeedback(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"feedback": items})
}

// ListContacts handles GET /admin/contact-messages requests.
func (h *FeedbackHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.ListContacts(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}
