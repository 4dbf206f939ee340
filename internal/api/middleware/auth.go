package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

const principalKey = "principal"

// TokenParser validates an access token and decodes the caller.
type TokenParser interface {
	ParseAccessToken(token string) (*domain.Principal, error)
}

// Auth validates the bearer token and injects the caller's Principal into
// the context. The role is decoded once here; handlers never reparse claims.
func Auth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c)
			if !ok {
				return domain.ErrUnauthorized
			}

			p, err := tokens.ParseAccessToken(token)
			if err != nil {
				return domain.ErrInvalidToken
			}

			SetPrincipal(c, *p)
			return next(c)
		}
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the caller injected by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	if !ok || p.ID == "" || !p.Role.IsValid() {
		return domain.Principal{}, false
	}
	return p, true
}
