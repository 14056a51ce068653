package router

import (
	"net/http"

	"course-market/internal/handler"
	"course-market/internal/identity"
	"course-market/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Health   *handler.HealthHandler
	Course   *handler.CourseHandler
	Order    *handler.OrderHandler
	Promo    *handler.PromoHandler
	Account  *handler.AccountHandler
	Report   *handler.ReportHandler
	Feedback *handler.FeedbackHandler
}

// Auth configures bearer token resolution and the admin policy.
type Auth struct {
	Resolver middleware.TokenResolver
	Policy   identity.AdminPolicy
}

// New creates a new HTTP router with all routes and middleware configured.
// limiter may be nil to disable rate limiting of public write endpoints.
func New(h Handlers, auth Auth, limiter *middleware.Limiter, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()

	authenticate := middleware.Authenticate(auth.Resolver, auth.Policy, logger)
	optional := middleware.OptionalAuthenticate(auth.Resolver, auth.Policy, logger)
	limited := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		limited = middleware.RateLimit(limiter, logger)
	}

	user := func(fn http.HandlerFunc) http.Handler { return authenticate(fn) }
	public := func(fn http.HandlerFunc) http.Handler { return limited(fn) }

	// Health check endpoint (no authentication required)
	r.HandleFunc("/health", h.Health.Check).Methods(http.MethodGet)

	// Accounts
	r.Handle("/signup", public(h.Account.Signup)).Methods(http.MethodPost)
	r.Handle("/login", public(h.Account.Login)).Methods(http.MethodPost)
	r.Handle("/profile", user(h.Account.GetProfile)).Methods(http.MethodGet)
	r.Handle("/profile", user(h.Account.UpdateProfile)).Methods(http.MethodPut)

	// Catalogue
	r.HandleFunc("/courses", h.Course.List).Methods(http.MethodGet)
	r.Handle("/courses/{id}", optional(http.HandlerFunc(h.Course.Get))).Methods(http.MethodGet)
	r.Handle("/courses/{id}/access", user(h.Course.Access)).Methods(http.MethodGet)
	r.Handle("/courses/{courseId}/lessons/{lessonId}/progress", user(h.Course.RecordProgress)).Methods(http.MethodPut)

	// Orders
	r.Handle("/orders", user(h.Order.Create)).Methods(http.MethodPost)
	r.Handle("/my-orders", user(h.Order.MyOrders)).Methods(http.MethodGet)
	r.Handle("/my-courses", user(h.Order.MyCourses)).Methods(http.MethodGet)
	r.Handle("/my-purchased-courses", user(h.Order.MyPurchasedCourses)).Methods(http.MethodGet)
	r.Handle("/validate-promo", user(h.Promo.Validate)).Methods(http.MethodPost)

	// Public forms and stats
	r.Handle("/feedback", public(h.Feedback.SubmitFeedback)).Methods(http.MethodPost)
	r.Handle("/contact", public(h.Feedback.SubmitContact)).Methods(http.MethodPost)
	r.HandleFunc("/stats", h.Report.Stats).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(authenticate, middleware.RequireAdmin(logger))

	admin.HandleFunc("/confirm-payment", h.Order.Confirm).Methods(http.MethodPost)
	admin.HandleFunc("/cancel-order", h.Order.Cancel).Methods(http.MethodPost)
	admin.HandleFunc("/orders", h.Order.List).Methods(http.MethodGet)
	admin.HandleFunc("/orders/export", h.Report.ExportOrders).Methods(http.MethodGet)

	admin.HandleFunc("/courses", h.Course.Create).Methods(http.MethodPost)
	admin.HandleFunc("/courses/{id}", h.Course.Update).Methods(http.MethodPut)
	admin.HandleFunc("/courses/{id}", h.Course.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/lessons", h.Course.CreateLesson).Methods(http.MethodPost)
	admin.HandleFunc("/lessons/{id}", h.Course.UpdateLesson).Methods(http.MethodPut)
	admin.HandleFunc("/lessons/{id}", h.Course.DeleteLesson).Methods(http.MethodDelete)

	admin.HandleFunc("/promo-codes", h.Promo.List).Methods(http.MethodGet)
	admin.HandleFunc("/promo-codes", h.Promo.Create).Methods(http.MethodPost)
	admin.HandleFunc("/promo-codes/{code}", h.Promo.Toggle).Methods(http.MethodPut)
	admin.HandleFunc("/promo-codes/{code}", h.Promo.Delete).Methods(http.MethodDelete)

	admin.HandleFunc("/users", h.Report.Users).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/progress", h.Report.UserProgress).Methods(http.MethodGet)
	admin.HandleFunc("/feedback", h.Feedback.ListFeedback).Methods(http.MethodGet)
	admin.HandleFunc("/contact-messages", h.Feedback.ListContacts).Methods(http.MethodGet)

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS
	var handler http.Handler = r
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
