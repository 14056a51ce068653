package repository

import (
	"context"

	"course-market/internal/model"
)

// CourseRepository defines the interface for course data access operations.
type CourseRepository interface {
	// List retrieves every course.
	List(ctx context.Context) ([]model.Course, error)

	// GetByID retrieves a single course. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Course, error)

	// Save upserts a course.
	Save(ctx context.Context, course *model.Course) error

	// Delete removes a course and every lesson under it.
	Delete(ctx context.Context, id string) error
}

// LessonRepository defines the interface for lesson data access operations.
type LessonRepository interface {
	// ListByCourse retrieves the lessons of a course ordered by Order, then
	// by creation.
	ListByCourse(ctx context.Context, courseID string) ([]model.Lesson, error)

	// GetByID retrieves a single lesson. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Lesson, error)

	// Save upserts a lesson.
	Save(ctx context.Context, lesson *model.Lesson) error

	// Delete removes a lesson.
	Delete(ctx context.Context, id string) error
}

// OrderMutation changes an order inside a transaction. A returned
// enrollment is created unless one already exists for the same user and
// course.
type OrderMutation func(order *model.Order) (*model.Enrollment, error)

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// Create stores a new order.
	Create(ctx context.Context, order *model.Order) error

	// GetByID retrieves an order. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// List retrieves all orders.
	List(ctx context.Context) ([]model.Order, error)

	// ListByUser retrieves the orders of a user.
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)

	// ListByUserCourse retrieves the orders of a user for one course.
	ListByUserCourse(ctx context.Context, userID, courseID string) ([]model.Order, error)

	// Transition atomically loads the order, applies mutate and persists the
	// order together with the enrollment mutate returns.
	Transition(ctx context.Context, id string, mutate OrderMutation) (*model.Order, error)
}

// EnrollmentRepository defines the interface for enrollment data access operations.
type EnrollmentRepository interface {
	// Get retrieves the enrollment of a user in a course. Returns nil when absent.
	Get(ctx context.Context, userID, courseID string) (*model.Enrollment, error)

	// ListByUser retrieves all enrollments of a user.
	ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error)

	// EnsureExists creates the enrollment unless one exists and reports
	// whether it created it.
	EnsureExists(ctx context.Context, enrollment *model.Enrollment) (bool, error)
}

// PromoRepository defines the interface for promo code data access operations.
type PromoRepository interface {
	// Get retrieves a promo by its normalised code. Returns nil when absent.
	Get(ctx context.Context, code string) (*model.PromoCode, error)

	// List retrieves every promo code.
	List(ctx context.Context) ([]model.PromoCode, error)

	// Create stores a promo unless its code is taken and reports whether it did.
	Create(ctx context.Context, promo *model.PromoCode) (bool, error)

	// Save upserts a promo.
	Save(ctx context.Context, promo *model.PromoCode) error

	// Delete removes a promo.
	Delete(ctx context.Context, code string) error
}

// UserRepository defines the interface for user profile data access operations.
type UserRepository interface {
	// GetByID retrieves a profile. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.UserProfile, error)

	// List retrieves all stored profiles.
	List(ctx context.Context) ([]model.UserProfile, error)

	// Save upserts a profile.
	Save(ctx context.Context, profile *model.UserProfile) error
}

// ProgressRepository defines the interface for lesson progress data access operations.
type ProgressRepository interface {
	// Save upserts a progress row.
	Save(ctx context.Context, progress *model.LessonProgress) error

	// ListByUserCourse retrieves the progress rows of a user in a course.
	ListByUserCourse(ctx context.Context, userID, courseID string) ([]model.LessonProgress, error)
}

// FeedbackRepository defines the interface for feedback and contact message storage.
type FeedbackRepository interface {
	SaveFeedback(ctx context.Context, feedback *model.Feedback) error
	ListFeedback(ctx context.Context) ([]model.Feedback, error)
	SaveContact(ctx context.Context, msg *model.ContactMessage) error
	ListContacts(ctx context.Context) ([]model.ContactMessage, error)
}
