package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/domain/document"
	domainservice "github.com/helixml/dokit/domain/service"
	"github.com/helixml/dokit/internal/database"
	"github.com/helixml/dokit/internal/log"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrAuthentication indicates a failed authentication attempt.
	ErrAuthentication = errors.New("authentication failed")

	// ErrServer indicates a server-side failure.
	ErrServer = errors.New("server error")
)

// APIError represents an error response from the API with an HTTP status
// code and a human-readable message.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{
		code:    code,
		message: message,
		cause:   cause,
	}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the error message.
func (e *APIError) Message() string { return e.message }

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %s", e.code, e.message, e.cause.Error())
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// AuthenticationError indicates a request failed authentication.
type AuthenticationError struct {
	reason string
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{reason: reason}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.reason)
}

// Is makes the error matchable with errors.Is(err, ErrAuthentication).
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// ServerError indicates a server-side failure with an HTTP status code.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a new ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{
		statusCode: statusCode,
		message:    message,
	}
}

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Message returns the error message.
func (e *ServerError) Message() string { return e.message }

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Is makes the error matchable with errors.Is(err, ErrServer).
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// errorResponse is the JSON body written for API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// WriteError maps an error to an HTTP status and writes a JSON error body.
// Typed errors carry their own status; known sentinels map to 400/404/503;
// everything else is a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	message := err.Error()

	var apiErr *APIError
	var serverErr *ServerError
	var authErr *AuthenticationError

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code()
		message = apiErr.Message()
	case errors.As(err, &serverErr):
		status = serverErr.StatusCode()
		message = serverErr.Message()
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
		message = authErr.Error()
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoContent),
		errors.Is(err, document.ErrEmptyFilename),
		errors.Is(err, domainservice.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrClientClosed):
		status = http.StatusServiceUnavailable
	}

	if logger != nil {
		logger.Error("request error",
			slog.String("correlation_id", log.CorrelationID(r.Context())),
			slog.Int("status", status),
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
