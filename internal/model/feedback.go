package model

import "time"

// Feedback is a public rating left on the platform.
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackRequest is the payload for submitting feedback.
type FeedbackRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Message string `json:"message" validate:"required"`
}

// ContactMessage is a public contact form submission.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactRequest is the payload for the contact form.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" validate:"required"`
}

// Stats is the public platform summary. ActiveStudents, SatisfactionRate
// and PartnerCompanies are estimates, not measurements.
type Stats struct {
	TotalCourses     int     `json:"totalCourses"`
	TotalInstructors int     `json:"totalInstructors"`
	TotalStudents    int     `json:"totalStudents"`
	EnrolledStudents int     `json:"enrolledStudents"`
	ActiveStudents   int     `json:"activeStudents"`
	AverageRating    float64 `json:"averageRating"`
	TotalOrders      int     `json:"totalOrders"`
	ConfirmedOrders  int     `json:"confirmedOrders"`
	SatisfactionRate int     `json:"satisfactionRate"`
	PartnerCompanies int     `json:"partnerCompanies"`
}
