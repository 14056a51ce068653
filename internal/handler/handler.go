package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"course-market/internal/identity"
	"course-market/internal/model"
	"course-market/internal/service"
	"course-market/internal/validate"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message, code string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps a service error to its HTTP status. Errors that are
// not domain errors are reported as internal errors without detail.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Msg("unexpected service error")
		writeError(w, http.StatusInternalServerError, "internal server error", model.ErrCodeInternalError, logger)
		return
	}

	if de.Kind == model.KindUpstream {
		logger.Error().Err(err).Msg("upstream failure")
	}
	writeError(w, statusForKind(de.Kind), de.Message, de.Code, logger)
}

func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate decodes the JSON body into dst and checks its
// validation tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", model.ErrCodeInvalidInput, logger)
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body", model.ErrCodeInvalidJSON, logger)
		return false
	}

	if err := validate.Check(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), model.ErrCodeMissingField, logger)
		return false
	}

	return true
}

// callerFrom builds the service caller from the identity the auth
// middleware attached to the request.
func callerFrom(r *http.Request) (service.Caller, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		return service.Caller{}, false
	}
	return service.Caller{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Admin:  identity.IsAdminContext(r.Context()),
	}, true
}

// requireCaller writes 401 when the request carries no identity.
func requireCaller(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (service.Caller, bool) {
	caller, ok := callerFrom(r)
	if !ok {
		writeServiceError(w, model.ErrUnauthorized, logger)
	}
	return caller, ok
}

type successResponse struct {
	Success bool `json:"success"`
}

var okResponse = successResponse{Success: true}
