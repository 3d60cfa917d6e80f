package model

import (
	"encoding/json"
	"fmt"
)

// APIError represents an API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MarshalJSON implements json.Marshaler
func (e APIError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	}{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// Common API errors
var (
	// ErrInvalidRequest is returned when the request is invalid
	ErrInvalidRequest = APIError{
		Status:  400,
		Code:    "invalid_request",
		Message: "The request is invalid",
	}

	// ErrUnauthorized is returned when the user is not authenticated
	ErrUnauthorized = APIError{
		Status:  401,
		Code:    "unauthorized",
		Message: "Authentication is required",
	}

	// ErrForbidden is returned when the user doesn't have permission
	ErrForbidden = APIError{
		Status:  403,
		Code:    "forbidden",
		Message: "You don't have permission to access this resource",
	}

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = APIError{
		Status:  404,
		Code:    "not_found",
		Message: "The requested resource was not found",
	}

	// ErrConnectionUnavailable is returned when the session transport
	// cannot be established
	ErrConnectionUnavailable = APIError{
		Status:  503,
		Code:    "connection_unavailable",
		Message: "Could not establish a session connection",
	}

	// ErrInternalServer is returned when an internal server error occurs
	ErrInternalServer = APIError{
		Status:  500,
		Code:    "internal_server_error",
		Message: "An internal server error occurred",
	}
)

// NewAPIError creates a new API error with the given status, code, and message
func NewAPIError(status int, code, message string) APIError {
	return APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// WithDetails adds details to an API error
func (e APIError) WithDetails(details string) APIError {
	e.Details = details
	return e
}
