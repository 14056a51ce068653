package model

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a purchase intent for one course by one user. The ID doubles as
// the storage key.
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	UserName      string      `json:"userName"`
	UserEmail     string      `json:"userEmail"`
	UserPhone     string      `json:"userPhone,omitempty"`
	CourseID      string      `json:"courseId"`
	CourseTitle   string      `json:"courseTitle"`
	CoursePrice   int64       `json:"coursePrice"`
	Discount      int64       `json:"discount"`
	FinalPrice    int64       `json:"finalPrice"`
	PromoCode     *string     `json:"promoCode,omitempty"`
	PaymentMethod string      `json:"paymentMethod"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	ConfirmedAt   *time.Time  `json:"confirmedAt,omitempty"`
	ConfirmedBy   *string     `json:"confirmedBy,omitempty"`
	CancelledAt   *time.Time  `json:"cancelledAt,omitempty"`
	CancelledBy   *string     `json:"cancelledBy,omitempty"`
}

// Enrollment is the access grant of a user to a course. At most one exists
// per (user, course).
type Enrollment struct {
	UserID          string    `json:"userId"`
	CourseID        string    `json:"courseId"`
	EnrolledAt      time.Time `json:"enrolledAt"`
	Progress        int       `json:"progress"`
	PurchaseOrderID string    `json:"purchaseOrderId,omitempty"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	CourseID      string  `json:"courseId" validate:"required"`
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
	PromoCode     *string `json:"promoCode,omitempty"`
}

// OrderActionRequest is the admin payload for confirming or cancelling an order.
type OrderActionRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// PurchasedCourse is a confirmed purchase with the course and its lessons.
type PurchasedCourse struct {
	Course       Course    `json:"course"`
	Lessons      []Lesson  `json:"lessons"`
	OrderID      string    `json:"orderId"`
	PurchaseDate time.Time `json:"purchaseDate"`
}
