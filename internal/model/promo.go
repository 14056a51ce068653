package model

import "time"

// PromoCode is a percentage discount applied at order creation.
type PromoCode struct {
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discountPercent"`
	Description     string    `json:"description,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PromoRequest is the admin payload for creating a promo code.
type PromoRequest struct {
	Code            string `json:"code" validate:"required,max=64"`
	DiscountPercent int    `json:"discountPercent" validate:"required,min=1,max=100"`
	Description     string `json:"description"`
	Active          *bool  `json:"active"`
}

// ValidatePromoRequest is the payload of a promo preview.
type ValidatePromoRequest struct {
	Code     string `json:"code"`
	CourseID string `json:"courseId,omitempty"`
}

// PromoPreview is the public part of a promo code.
type PromoPreview struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discountPercent"`
	Description     string `json:"description,omitempty"`
}

// PromoValidation is the result of a promo preview. Discount and FinalPrice
// are only set when a course was supplied and resolved.
type PromoValidation struct {
	Valid      bool          `json:"valid"`
	Error      string        `json:"error,omitempty"`
	Promo      *PromoPreview `json:"promo,omitempty"`
	Discount   *int64        `json:"discount,omitempty"`
	FinalPrice *int64        `json:"finalPrice,omitempty"`
}
