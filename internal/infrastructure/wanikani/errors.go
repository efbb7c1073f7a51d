package wanikani

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("wanikani %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("wanikani %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is lets 401 responses match entity.ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == entity.ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
