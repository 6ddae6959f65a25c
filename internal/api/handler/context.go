package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/geofield/worksheet-system/internal/core/ports"
)

// ctxActor extracts the acting identity injected by the Session middleware.
// An empty actor means the middleware did not run; reject with 401 before any
// service call.
func ctxActor(c echo.Context) (ports.Actor, error) {
	actor, ok := c.Get("actor").(ports.Actor)
	if !ok || actor.ID == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor, nil
}

// ctxSessionID returns the authenticated session's id.
func ctxSessionID(c echo.Context) (string, error) {
	sid, _ := c.Get("session_id").(string)
	if sid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return sid, nil
}

// ctxEmail returns the authenticated identity's email.
func ctxEmail(c echo.Context) (string, error) {
	email, _ := c.Get("email").(string)
	if email == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return email, nil
}
