package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the single error type returned by every client call.
// Status is 0 when the request never produced an HTTP response.
type APIError struct {
	Status  int
	Message string
	Payload any
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// Transport reports whether the failure happened before any response arrived.
func (e *APIError) Transport() bool { return e.Status == 0 }

// IsStatus reports whether err is an APIError carrying the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether the server rejected the session.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(payload any, status int) string {
	if body, ok := payload.(map[string]any); ok {
		switch v := body["error"].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if msg, ok := v["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if detail, ok := body["detail"].(string); ok && detail != "" {
			return detail
		}
	}
	return fmt.Sprintf("API request failed (%d)", status)
}
