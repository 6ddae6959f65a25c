package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// SessionCookie is the name of the cookie carrying the signed session id.
const SessionCookie = "session"

// SignSession mints the cookie token for a session: an HS256 JWT carrying the
// session id and the session's own expiry. All authenticated state stays
// server-side; the token is only a tamper-proof pointer to it.
func SignSession(secret string, s *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid": s.ID,
		"iat": s.Token.IssuedAt.Unix(),
		"exp": s.Token.ExpiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionID validates the cookie token and extracts the session id.
func ParseSessionID(secret, token string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return "", domain.ErrSessionNotFound
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", domain.ErrSessionNotFound
	}
	return sid, nil
}

// Session authenticates requests from the session cookie: the cookie JWT is
// validated, the server-side record is loaded, and the acting identity is
// injected into context. A missing, invalid, or expired session is a 401;
// a store failure is not a bad session and propagates as an internal error.
func Session(secret string, store ports.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}

			sid, err := ParseSessionID(secret, cookie.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			session, err := store.Find(c.Request().Context(), sid)
			if errors.Is(err, domain.ErrSessionNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			if session.Expired(time.Now()) {
				_ = store.Delete(c.Request().Context(), sid)
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			c.Set("session_id", session.ID)
			c.Set("actor", ports.Actor{
				ID:       session.UserID,
				Username: session.Username,
				Role:     session.Role,
			})
			c.Set("email", session.Email)

			return next(c)
		}
	}
}
