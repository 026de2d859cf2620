package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/mern-bugtracker/bug-tracker/internal/api/handler"
)

// Auth validates the bearer JWT and stores the caller's email as the actor.
// Requests without a valid token are rejected with 401.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			email, err := parseBearer(authHeader, jwtSecret)
			if err != nil {
				return err
			}

			c.Set(handler.ContextKeyActor, email)
			return next(c)
		}
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present and
// lets anonymous requests through. A malformed or invalid token is still 401.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" || jwtSecret == "" {
				return next(c)
			}

			email, err := parseBearer(authHeader, jwtSecret)
			if err != nil {
				return err
			}

			c.Set(handler.ContextKeyActor, email)
			return next(c)
		}
	}
}

func parseBearer(authHeader, jwtSecret string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token missing email claim")
	}
	return email, nil
}
