package service

import (
	"context"
	"fmt"
	"io"

	"course-market/internal/model"
	"course-market/internal/promo"
)

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID string
	Email  string
	Name   string
	Admin  bool
}

// CatalogService defines operations for courses, lessons and lesson progress.
type CatalogService interface {
	// ListCourses retrieves all courses, newest first.
	ListCourses(ctx context.Context) ([]model.Course, error)

	// GetCourse retrieves a course with its lessons. Video references are
	// only included for admins and callers with access. caller may be nil.
	GetCourse(ctx context.Context, id string, caller *Caller) (*model.CourseDetail, error)

	CreateCourse(ctx context.Context, req *model.CourseRequest) (*model.Course, error)
	UpdateCourse(ctx context.Context, id string, req *model.CourseRequest) (*model.Course, error)

	// DeleteCourse removes a course and all of its lessons.
	DeleteCourse(ctx context.Context, id string) error

	CreateLesson(ctx context.Context, req *model.LessonRequest) (*model.Lesson, error)
	UpdateLesson(ctx context.Context, id string, req *model.LessonRequest) (*model.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error

	// RecordProgress marks a lesson as completed or not for a caller with access.
	RecordProgress(ctx context.Context, caller Caller, courseID, lessonID string, completed bool) (*model.LessonProgress, error)
}

// PromoService defines operations for promo codes.
type PromoService interface {
	// Validate previews a promo code, optionally priced against a course.
	Validate(ctx context.Context, code, courseID string) (*model.PromoValidation, error)

	Create(ctx context.Context, req *model.PromoRequest) (*model.PromoCode, error)
	Toggle(ctx context.Context, code string) (*model.PromoCode, error)
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]model.PromoCode, error)

	// Import stores seeds whose codes are not registered yet and returns
	// how many were added.
	Import(ctx context.Context, seeds promo.SeedSet) (int, error)
}

// AccessChecker decides whether a user may watch a course.
type AccessChecker interface {
	CheckAccess(ctx context.Context, userID, courseID string) (bool, error)
}

// OrderService defines the order lifecycle.
type OrderService interface {
	AccessChecker

	// CreateOrder creates a pending order for the caller.
	CreateOrder(ctx context.Context, caller Caller, req *model.OrderRequest) (*model.Order, error)

	// ConfirmPayment confirms a pending order and grants access.
	ConfirmPayment(ctx context.Context, orderID, adminID string) (*model.Order, error)

	// CancelOrder cancels a pending order.
	CancelOrder(ctx context.Context, orderID, adminID string) (*model.Order, error)

	// ListOrders retrieves all orders, newest first.
	ListOrders(ctx context.Context) ([]model.Order, error)

	// ListUserOrders retrieves the orders of a user, newest first.
	ListUserOrders(ctx context.Context, userID string) ([]model.Order, error)

	// ListEnrollments retrieves the enrollments of a user.
	ListEnrollments(ctx context.Context, userID string) ([]model.Enrollment, error)

	// PurchasedCourses retrieves the confirmed purchases of a user with course content.
	PurchasedCourses(ctx context.Context, userID string) ([]model.PurchasedCourse, error)

	// ReconcileEnrollment creates the enrollment of a confirmed order if missing.
	ReconcileEnrollment(ctx context.Context, orderID string) error
}

// AccountService defines account and profile operations.
type AccountService interface {
	SignUp(ctx context.Context, req *model.SignupRequest) (*model.UserProfile, error)
	SignIn(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetProfile(ctx context.Context, caller Caller) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, caller Caller, req *model.ProfileUpdateRequest) (*model.UserProfile, error)
}

// ReportService defines admin and public reporting.
type ReportService interface {
	GetStats(ctx context.Context) (*model.Stats, error)
	GetUserProgress(ctx context.Context, userID string) ([]model.CourseProgress, error)
	ListUsers(ctx context.Context) ([]model.UserSummary, error)

	// ExportOrders writes all orders as an XLSX workbook.
	ExportOrders(ctx context.Context, w io.Writer) error
}

// FeedbackService defines public feedback and contact operations.
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, req *model.FeedbackRequest) (*model.Feedback, error)
	SubmitContact(ctx context.Context, req *model.ContactRequest) (*model.ContactMessage, error)
	ListFeedback(ctx context.Context) ([]model.Feedback, error)
	ListContacts(ctx context.Context) ([]model.ContactMessage, error)
}

// upstream marks an infrastructure failure unless err already carries a
// domain error.
func upstream(err error) error {
	if _, ok := model.AsDomainError(err); ok {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrStoreFailure, err)
}
