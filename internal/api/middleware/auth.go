package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Keys under which Auth stores the token claims on the echo context.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
	KeyName   = "name"
)

// Auth validates the bearer JWT (HS256, unexpired) and copies its claims into
// the context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, _ := claims[KeyUserID].(string)
			role, _ := claims[KeyRole].(string)
			if userID == "" || role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity")
			}
			name, _ := claims[KeyName].(string)

			c.Set(KeyUserID, userID)
			c.Set(KeyRole, role)
			c.Set(KeyName, name)

			return next(c)
		}
	}
}
