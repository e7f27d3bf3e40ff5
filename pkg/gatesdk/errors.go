package gatesdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/sessiongate/pkg/httpx"
)

const (
	ErrorCodeNotFound       = "not_found"
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeUnauthorized   = "unauthorized"
	ErrorCodeServerError    = "server_error"
)

// GatewayError is the JSON error shape the gateway returns on its API
// endpoints. It serves both the handlers (to write responses) and the
// SDK client (to represent them).
type GatewayError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this error to an HTTP response writer.
func (e *GatewayError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrUnknownService is returned for routes naming a provider the
	// gateway has not been configured with.
	ErrUnknownService = &GatewayError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "unknown service",
	}

	// ErrInvalidRequest is returned for malformed request bodies.
	ErrInvalidRequest = &GatewayError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrUnauthorized is returned when a logout notification's shared
	// secret is missing or wrong.
	ErrUnauthorized = &GatewayError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "invalid logout token",
	}

	// ErrServerError is returned on unexpected internal failures.
	ErrServerError = &GatewayError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)
