package apperrors

import (
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL"
)

// AppError represents a standardized error response
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError
func New(code, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

func NewValidation(message string) *AppError {
	return New(CodeValidation, message, "")
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, "")
}

func NewForbidden(message string) *AppError {
	return New(CodeForbidden, message, "")
}

func NewNotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), "")
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message, "")
}

func NewInsufficientStock(available, requested int) *AppError {
	return New(CodeConflict, fmt.Sprintf("insufficient stock: only %d available", available),
		fmt.Sprintf("Available: %d, Requested: %d", available, requested))
}

func NewInternal(message string, err error) *AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return New(CodeInternal, message, details)
}
