package backend

import (
	"strings"
	"time"
)

const defaultSessionTTL = 24 * time.Hour

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session carries the bearer token for one signed-in user. It is passed to
// every authenticated call instead of living in process-wide state.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the session has a token that has not expired at now.
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

func (s Session) IsAdmin() bool {
	return strings.EqualFold(s.User.Role, "admin")
}

// ServiceSession wraps a static API token, used for server-to-server calls.
func ServiceSession(token string) Session {
	return Session{Token: token, User: User{Role: "admin"}}
}
