package handler

import (
	"net/http"

	"course-market/internal/model"
	"course-market/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// CourseHandler handles catalogue and lesson HTTP requests.
type CourseHandler struct {
	catalog service.CatalogService
	access  service.AccessChecker
	logger  zerolog.Logger
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(catalog service.CatalogService, access service.AccessChecker, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		catalog: catalog,
		access:  access,
		logger:  logger.With().Str("handler", "course").Logger(),
	}
}

// List handles GET /courses requests.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

// Get handles GET /courses/{id} requests. The bearer token is optional.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	var caller *service.Caller
	if c, ok := callerFrom(r); ok {
		caller = &c
	}

	detail, err := h.catalog.GetCourse(r.Context(), mux.Vars(r)["id"], caller)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Access handles GET /courses/{id}/access requests.
func (h *CourseHandler) Access(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.logger)
	if !ok {
		return
	}

	hasAccess := caller.Admin
	if !hasAccess {
		var err error
		hasAccess, err = h.access.CheckAccess(r.Context(), caller.UserID, mux.Vars(r)["id"])
		if err != nil {
			writeServiceError(w, err, h.logger)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"hasAccess": hasAccess})
}

// RecordProgress handles PUT /courses/{courseId}/lessons/{lessonId}/progress requests.
func (h *CourseHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.logger)
	if !ok {
		return
	}

	var req model.ProgressRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	vars := mux.Vars(r)
	progress, err := h.catalog.RecordProgress(r.Context(), caller, vars["courseId"], vars["lessonId"], req.Completed)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "progress": progress})
}

// Create handles POST /admin/courses requests.
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CourseRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	course, err := h.catalog.CreateCourse(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "courseId": course.ID, "course": course})
}

// Update handles PUT /admin/courses/{id} requests.
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.CourseRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	course, err := h.catalog.UpdateCourse(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "courseId": course.ID, "course": course})
}

// Delete handles DELETE /admin/courses/{id} requests.
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCourse(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, okResponse)
}

// CreateLesson handles POST /admin/lessons requests.
func (h *CourseHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req model.LessonRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	lesson, err := h.catalog.CreateLesson(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "lessonId": lesson.ID, "lesson": lesson})
}

// UpdateLesson handles PUT /admin/lessons/{id} requests.
func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	var req model.LessonRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	lesson, err := h.catalog.UpdateLesson(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "lessonId": lesson.ID, "lesson": lesson})
}

// DeleteLesson handles DELETE /admin/lessons/{id} requests.
func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteLesson(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, okResponse)
}
