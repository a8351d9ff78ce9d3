package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNotFound     = errors.New("resource not found")
	ErrBadResponse  = errors.New("unexpected backend response")
)

// APIError is a non-2xx answer of the backend
type APIError struct {
	Method  string `json:"-"`
	Path    string `json:"path"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// IsUnauthorized checks if the backend rejected the credentials
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrInvalidToken) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound checks if the backend reported a missing resource
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
