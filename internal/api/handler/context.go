package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/telemedicine/internal/api/middleware"
	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// ctxActor rebuilds the caller from the claims injected by the Auth
// middleware. A missing user id or an unknown role means the middleware did
// not run or the token was minted elsewhere; both are rejected with 401.
func ctxActor(c echo.Context) (ports.Actor, error) {
	userID, _ := c.Get(middleware.KeyUserID).(string)
	role, _ := c.Get(middleware.KeyRole).(string)
	if userID == "" || !domain.Role(role).Valid() {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	name, _ := c.Get(middleware.KeyName).(string)
	return ports.Actor{ID: userID, Role: domain.Role(role), Name: name}, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func publicUsers(users []domain.User) []domain.PublicUser {
	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
