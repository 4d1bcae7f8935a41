package storyblok

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents an error response from the Content Delivery API.
type APIError struct {
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Message    string `json:"message"     yaml:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storyblok: %s (status: %d)", http.StatusText(e.StatusCode), e.StatusCode)
	}

	return fmt.Sprintf("storyblok: %s (status: %d)", e.Message, e.StatusCode)
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrAccessTokenRequired  = errors.New("access token is required")
	ErrPreviewTokenRequired = errors.New("preview token is required for draft content")
	ErrInvalidVersion       = errors.New("invalid content version")
	ErrInvalidBaseURL       = errors.New("invalid base URL")
	ErrCircuitBreakerOpen   = errors.New("circuit breaker is open")
	ErrNoMoreItems          = errors.New("no more items")
	ErrSlugRequired         = errors.New("slug is required")
	ErrDatasourceRequired   = errors.New("datasource is required")
	ErrInvalidPreviewToken  = errors.New("invalid preview token")
	ErrPreviewExpired       = errors.New("preview token expired")
	ErrMissingPreviewParams = errors.New("missing preview parameters")
	ErrInvalidBridgeEvent   = errors.New("invalid bridge event")
)

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsRateLimited checks if the error is a rate limiting error.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

func hasStatus(err error, status int) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}

	return false
}

// ParseResponseError builds an APIError from a response body. The CDA answers
// with {"error": "..."}, a JSON array of messages, or plain text.
func ParseResponseError(statusCode int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return apiErr
	}

	var object struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if json.Unmarshal(data, &object) == nil {
		apiErr.Message = object.Error
		if apiErr.Message == "" {
			apiErr.Message = object.Message
		}

		return apiErr
	}

	var messages []string
	if json.Unmarshal(data, &messages) == nil {
		apiErr.Message = strings.Join(messages, "; ")

		return apiErr
	}

	var message string
	if json.Unmarshal(data, &message) == nil {
		apiErr.Message = message

		return apiErr
	}

	apiErr.Message = trimmed

	return apiErr
}
