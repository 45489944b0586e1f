package dexcom

import (
	"errors"
	"fmt"
	"net/http"

	"vitals_overlay/internal/feed"
)

// Vendor error codes that mean the session id is no longer usable.
const (
	codeSessionNotFound = "SessionIdNotFound"
	codeSessionNotValid = "SessionNotValid"
)

// APIError is a non-2xx answer from the vendor.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("dexcom HTTP %d: %s: %s", e.Status, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("dexcom HTTP %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("dexcom HTTP %d", e.Status)
	}
}

func (e *APIError) Unwrap() error { return feed.ErrUpstream }

// IsSessionExpired reports whether err means the session must be renewed.
func IsSessionExpired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case codeSessionNotFound, codeSessionNotValid:
		return true
	}
	return apiErr.Status == http.StatusInternalServerError
}
