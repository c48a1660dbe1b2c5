package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// IdentityHeader names the header carrying the caller's user id. Session
// management lives upstream; this service only requires that an identity is
// stated explicitly on every cart-touching request.
const IdentityHeader = "X-User-ID"

func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(IdentityHeader)
		if raw == "" {
			return c.JSON(http.StatusUnauthorized, "identity required")
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, "invalid identity")
		}
		c.Set("user_id", userID.String())
		return next(c)
	}
}

func GetID(c echo.Context) (uuid.UUID, error) {
	v := c.Get("user_id")
	s, ok := v.(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return userID, nil
}
