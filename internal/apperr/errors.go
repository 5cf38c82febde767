package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when a required field is missing or invalid.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a username or email is already taken.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials is returned on an unknown user or a hash mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound is returned when a session token resolves to nothing.
	ErrNotFound = errors.New("not found")
	// ErrExpired is returned when either attendance time window has elapsed.
	ErrExpired = errors.New("expired")
	// ErrDuplicate is returned on a second mark for the same student and session.
	ErrDuplicate = errors.New("already marked")
	// ErrMalformedPayload is returned when a scanned payload fails to parse.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrForbidden is returned when the bearer identity does not match the request.
	ErrForbidden = errors.New("forbidden")
)

// Response is the JSON body returned for any failed operation. Callers match
// on Code, never on Message.
type Response struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPError pairs a failure with its transport status and machine code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ToResponse converts an HTTPError to the wire shape.
func (e *HTTPError) ToResponse() Response {
	return Response{Success: false, Code: e.Code, Message: e.Message}
}

// MapToHTTP maps domain errors to HTTP errors. Wrapped sentinels keep their
// contextual message; anything unrecognized surfaces as an internal error with
// its raw diagnostic text.
func MapToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return &HTTPError{http.StatusBadRequest, err.Error(), "VALIDATION_ERROR"}
	case errors.Is(err, ErrMalformedPayload):
		return &HTTPError{http.StatusBadRequest, err.Error(), "MALFORMED_PAYLOAD"}
	case errors.Is(err, ErrInvalidCredentials):
		return &HTTPError{http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS"}
	case errors.Is(err, ErrForbidden):
		return &HTTPError{http.StatusForbidden, err.Error(), "FORBIDDEN"}
	case errors.Is(err, ErrNotFound):
		return &HTTPError{http.StatusNotFound, err.Error(), "NOT_FOUND"}
	case errors.Is(err, ErrConflict):
		return &HTTPError{http.StatusConflict, err.Error(), "CONFLICT"}
	case errors.Is(err, ErrDuplicate):
		return &HTTPError{http.StatusConflict, err.Error(), "DUPLICATE"}
	case errors.Is(err, ErrExpired):
		return &HTTPError{http.StatusGone, err.Error(), "EXPIRED"}
	default:
		return &HTTPError{http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR"}
	}
}
