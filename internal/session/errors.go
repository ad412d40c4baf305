package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLoginFormNotFound means the site showed its login page but no form on
// it carries the login action.
var ErrLoginFormNotFound = errors.New("login page has no login form")

// StatusError is a response outside the 2xx range. Network failures are
// returned as plain wrapped errors instead.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// AuthError is returned when submitting the login form lands on the login
// page again.
type AuthError struct {
	Message  string
	Messages []string
}

func (e *AuthError) Error() string {
	return e.Message
}

// The login page always opens with a "JavaScript is disabled" banner, so the
// real reason is the second error banner. This depends on the site's current
// markup.
func newAuthError(messages []string) *AuthError {
	trimmed := make([]string, 0, len(messages))
	for _, m := range messages {
		trimmed = append(trimmed, strings.TrimSpace(m))
	}

	msg := "login rejected without an error message"
	switch {
	case len(trimmed) >= 2:
		msg = trimmed[1]
	case len(trimmed) == 1:
		msg = trimmed[0]
	}

	return &AuthError{Message: msg, Messages: trimmed}
}

type ProfileNotFoundError struct {
	Requested string
	Available []string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found in %q", e.Requested, e.Available)
}
