package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionTTL is the validity window of a server-side session.
const SessionTTL = 30 * time.Minute

var ErrSessionNotFound = errors.New("session not found")

// SessionToken is the validity structure attached to a session record.
type SessionToken struct {
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Verifier  string    `json:"verifier"`
}

// Session correlates a client cookie with an authenticated identity. The
// record lives server-side; the cookie carries only the session id. Destroyed
// on logout and on self-deletion.
type Session struct {
	ID       string       `json:"id"`
	UserID   string       `json:"user_id"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Name     string       `json:"name"`
	Role     Role         `json:"role"`
	Token    SessionToken `json:"token"`
}

// NewSession mints a session for u valid for SessionTTL from now.
func NewSession(u *User, now time.Time) *Session {
	return &Session{
		ID:       uuid.NewString(),
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		Token: SessionToken{
			IssuedAt:  now,
			ExpiresAt: now.Add(SessionTTL),
			Verifier:  randomVerifier(),
		},
	}
}

// Expired reports whether the session's validity window has passed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.Token.ExpiresAt)
}

func randomVerifier() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a uuid.
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}
