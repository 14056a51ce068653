package model

import "time"

// UserProfile is the stored profile of an identity. EnrolledCourses is
// filled from enrollment records on read.
type UserProfile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone,omitempty"`
	EnrolledCourses []string  `json:"enrolledCourses"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SignupRequest is the payload for creating an account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
}

// LoginRequest is the payload for a password sign-in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
}

// ProfileUpdateRequest updates the caller's profile.
type ProfileUpdateRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Phone *string `json:"phone,omitempty"`
}

// CourseProgress is the progress of one user in one purchased course.
type CourseProgress struct {
	CourseID         string    `json:"courseId"`
	CourseTitle      string    `json:"courseTitle"`
	TotalLessons     int       `json:"totalLessons"`
	CompletedLessons int       `json:"completedLessons"`
	Progress         int       `json:"progress"`
	PurchaseDate     time.Time `json:"purchaseDate"`
}

// UserSummary is the admin view of a user with their purchases.
type UserSummary struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	Name          string           `json:"name"`
	Phone         string           `json:"phone,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	Courses       []CourseProgress `json:"purchasedCourses"`
	TotalProgress int              `json:"totalProgress"`
}
