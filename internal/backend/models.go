package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrUnauthorized is returned when the backend rejects the session token.
	ErrUnauthorized = errors.New("session expired or invalid")

	// ErrInvalidCredentials is returned when login is refused.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrConflict is returned when the backend refuses an add as a duplicate.
	ErrConflict = errors.New("conflict")

	// ErrMissingToken is returned before any request when no token is available.
	ErrMissingToken = errors.New("no session token")
)

// User is the profile record of the signed-in user.
type User struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// MemberSince returns the UTC date the account was created.
func (u User) MemberSince() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, u.CreatedAt); err == nil {
			y, m, d := t.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// LoginResult is the reply to a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerReply struct {
	StatusCode    int                 `json:"status_code"`
	StatusMessage string              `json:"status_message"`
	ErrorsList    map[string][]string `json:"errorsList"`
}

// empty reports a reply that carries none of the registration fields.
func (r registerReply) empty() bool {
	return r.StatusCode == 0 && r.StatusMessage == "" && len(r.ErrorsList) == 0
}

// RegistrationError carries the backend's structured validation failure.
type RegistrationError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *RegistrationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, strings.Join(e.Fields[field], ", "))
	}
	return e.Message + ": " + strings.Join(parts, ". ")
}

// StatusError is any other non-2xx reply.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}
