package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
)

// domainErrorHTTPStatus maps domain error codes to HTTP status codes.
// Codes absent from the map fall back to 500 so a new domain error is
// never silently treated as a client fault.
var domainErrorHTTPStatus = map[string]int{
	// Input problems -> 400 Bad Request
	"BAD_REQUEST":            http.StatusBadRequest,
	"INVALID_INPUT":          http.StatusBadRequest,
	"INVALID_AMOUNT":         http.StatusBadRequest,
	"INVALID_METHOD":         http.StatusBadRequest,
	"INVALID_INVOICE":        http.StatusBadRequest,
	"INVALID_INVOICE_NUMBER": http.StatusBadRequest,
	"INVALID_ORGANIZATION":   http.StatusBadRequest,
	"INVALID_COURSE":         http.StatusBadRequest,
	"INVALID_VENDOR":         http.StatusBadRequest,
	"INVALID_VENDOR_INVOICE": http.StatusBadRequest,
	"INVALID_REASON":         http.StatusBadRequest,
	"INVALID_STATUS":         http.StatusBadRequest,
	"NOTE_REQUIRED":          http.StatusBadRequest,
	"REASON_REQUIRED":        http.StatusBadRequest,

	// Auth problems
	"UNAUTHORIZED": http.StatusUnauthorized,
	"FORBIDDEN":    http.StatusForbidden,

	// Missing resources -> 404 Not Found
	"NOT_FOUND":                http.StatusNotFound,
	"COURSE_NOT_FOUND":         http.StatusNotFound,
	"INVOICE_NOT_FOUND":        http.StatusNotFound,
	"PAYMENT_NOT_FOUND":        http.StatusNotFound,
	"VENDOR_INVOICE_NOT_FOUND": http.StatusNotFound,

	// Conflicts -> 409 Conflict
	"ALREADY_EXISTS":       http.StatusConflict,
	"ALREADY_INVOICED":     http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	"INVALID_STATE":           http.StatusUnprocessableEntity,
	"READINESS_CHECK_FAILED":  http.StatusUnprocessableEntity,
	"PAYMENT_EXCEEDS_BALANCE": http.StatusUnprocessableEntity,
	"PAYMENTS_PENDING":        http.StatusUnprocessableEntity,
	"REVERSAL_WINDOW_EXPIRED": http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := domainErrorHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
