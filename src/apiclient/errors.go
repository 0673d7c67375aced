package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// extractErrorMessage pulls a human-readable message out of a JSON error
// body. The backend uses {"detail": "..."}; an OpenAI-shaped
// {"error":{"message":"..."}} is accepted too. Anything else falls back to
// the HTTP status text.
func extractErrorMessage(body []byte, statusText string) string {
	if len(body) == 0 {
		return statusText
	}

	var detail struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return statusText
	}
	if detail.Detail != "" {
		return detail.Detail
	}
	if detail.Error.Message != "" {
		return detail.Error.Message
	}
	return statusText
}
