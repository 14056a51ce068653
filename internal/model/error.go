package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorKind classifies a domain error so the transport layer can pick a status.
type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeCourseNotFound    = "COURSE_NOT_FOUND"
	ErrCodeLessonNotFound    = "LESSON_NOT_FOUND"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeProfileNotFound   = "PROFILE_NOT_FOUND"
	ErrCodePromoNotFound     = "PROMO_NOT_FOUND"
	ErrCodePromoInactive     = "PROMO_INACTIVE"
	ErrCodePromoExists       = "PROMO_EXISTS"
	ErrCodeAlreadyPurchased  = "ALREADY_PURCHASED"
	ErrCodeOrderNotPending   = "ORDER_NOT_PENDING"
	ErrCodeAccessDenied      = "ACCESS_DENIED"
	ErrCodeIdentityFailure   = "IDENTITY_FAILURE"
	ErrCodeStoreFailure      = "STORE_FAILURE"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeAccountExists     = "ACCOUNT_EXISTS"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeRateLimited       = "RATE_LIMITED"
)

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies compare equal to the sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// InvalidInput builds an input validation error with a custom message.
func InvalidInput(message string) *DomainError {
	return NewDomainError(KindInvalidInput, ErrCodeInvalidInput, message)
}

// AsDomainError unwraps err into a *DomainError when possible.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrUnauthorized      = NewDomainError(KindUnauthorized, ErrCodeUnauthorised, "Unauthorized")
	ErrForbidden         = NewDomainError(KindForbidden, ErrCodeForbidden, "Admin access required")
	ErrCourseNotFound    = NewDomainError(KindNotFound, ErrCodeCourseNotFound, "Course not found")
	ErrLessonNotFound    = NewDomainError(KindNotFound, ErrCodeLessonNotFound, "Lesson not found")
	ErrOrderNotFound     = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrProfileNotFound   = NewDomainError(KindNotFound, ErrCodeProfileNotFound, "User profile not found")
	ErrPromoNotFound     = NewDomainError(KindNotFound, ErrCodePromoNotFound, "Promo code not found")
	ErrPromoInactive     = NewDomainError(KindInvalidInput, ErrCodePromoInactive, "Promo code is inactive")
	ErrPromoExists       = NewDomainError(KindConflict, ErrCodePromoExists, "Promo code already exists")
	ErrAlreadyPurchased  = NewDomainError(KindConflict, ErrCodeAlreadyPurchased, "You have already purchased this course")
	ErrOrderNotPending   = NewDomainError(KindConflict, ErrCodeOrderNotPending, "Order is not pending")
	ErrAccessDenied      = NewDomainError(KindForbidden, ErrCodeAccessDenied, "You do not have access to this course")
	ErrAccountExists     = NewDomainError(KindConflict, ErrCodeAccountExists, "An account with this email already exists")
	ErrInvalidCredential = NewDomainError(KindUnauthorized, ErrCodeInvalidCredential, "Invalid email or password")
	ErrIdentityFailure   = NewDomainError(KindUpstream, ErrCodeIdentityFailure, "Identity provider unavailable")
	ErrStoreFailure      = NewDomainError(KindUpstream, ErrCodeStoreFailure, "Storage unavailable")
)
