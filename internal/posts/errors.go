package posts

import (
	"fmt"
	"net/http"

	"postboard/internal/models"
)

// ServiceError represents errors from the posts service with HTTP context
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error constructors for common service errors

func NewPostNotFoundError(id int64) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeNotFound,
		Message:    fmt.Sprintf("post %d not found", id),
		StatusCode: http.StatusNotFound,
	}
}

func NewAuthorNotFoundError(id int64) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeValidation,
		Message:    fmt.Sprintf("author %d does not exist", id),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewValidationError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeValidation,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
