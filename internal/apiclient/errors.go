package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any error caused by rejected credentials.
var ErrUnauthorized = errors.New("not authorized, please login")

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

func (e *Error) Unwrap() error {
	if e.Unauthorized() {
		return ErrUnauthorized
	}
	return nil
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message extracts a user-facing message from err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// checkResponse classifies a response. Some backend routes answer 200 with
// {"statusCode":401,...} instead of a real 401; both count as unauthorized.
func checkResponse(status int, data []byte) *Error {
	var eb errorBody
	if len(data) > 0 && data[0] == '{' {
		_ = json.Unmarshal(data, &eb)
	}
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(eb.Error)
	}

	if status == http.StatusUnauthorized || eb.StatusCode == http.StatusUnauthorized {
		if msg == "" {
			msg = "Not authorized, please login"
		}
		return &Error{Status: http.StatusUnauthorized, Message: msg}
	}
	if status >= 200 && status < 300 {
		return nil
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}
