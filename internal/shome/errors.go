package shome

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for sHome API operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMissingCookie is returned when the version-check response does not
	// carry the JSESSIONID cookie required by every later request.
	ErrMissingCookie = errors.New("shome: JSESSIONID cookie missing from version check response")

	// ErrSessionSetup is returned when the version-check or login call fails
	// outright (network, malformed response). Retry policy is the caller's.
	ErrSessionSetup = errors.New("shome: session setup failed")

	// ErrAuthExpired is returned when an authenticated request was rejected
	// for authorization reasons after the one permitted re-login attempt.
	ErrAuthExpired = errors.New("shome: session expired and re-login did not recover")

	// ErrNotLoggedIn is returned when an operation that needs a session is
	// attempted before any successful login.
	ErrNotLoggedIn = errors.New("shome: not logged in")
)

// HTTPStatusError surfaces a non-2xx response from the sHome API.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("shome api error %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// IsAuthError reports whether err is the API's authorization rejection
// (HTTP 401), which is recoverable by a single re-login.
func IsAuthError(err error) bool {
	var statusErr HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == 401
	}
	return false
}
