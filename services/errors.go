package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeUnprocessable ErrorType = "unprocessable"
	ErrorTypeBadRequest    ErrorType = "bad_request"
	ErrorTypeInternal      ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	ErrBookNotFound   = NewDomainError(ErrorTypeNotFound, "book not found", nil)
	ErrDegreeNotFound = NewDomainError(ErrorTypeNotFound, "degree not found", nil)

	ErrInvalidBody        = NewDomainError(ErrorTypeBadRequest, "request body is not valid JSON", nil)
	ErrMissingField       = NewDomainError(ErrorTypeUnprocessable, "required field missing", nil)
	ErrFieldNotPatchable  = NewDomainError(ErrorTypeUnprocessable, "field cannot be updated", nil)
	ErrConstraintViolated = NewDomainError(ErrorTypeUnprocessable, "record violates a store constraint", nil)

	ErrStoreUnavailable = NewDomainError(ErrorTypeInternal, "record store unavailable", nil)
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsUnprocessableError checks if an error is an unprocessable entity error
func IsUnprocessableError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnprocessable
}

// IsBadRequestError checks if an error is a malformed request error
func IsBadRequestError(err error) bool {
	return GetErrorType(err) == ErrorTypeBadRequest
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapUnprocessable wraps an error as an unprocessable entity error
func WrapUnprocessable(message string, err error) error {
	return NewDomainError(ErrorTypeUnprocessable, message, err)
}
