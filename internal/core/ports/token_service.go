package ports

import (
	"time"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// TokenService issues and validates access and refresh tokens.
type TokenService interface {
	IssueAccessToken(user *domain.User) (string, error)
	IssueRefreshToken() (string, error)
	// ParseAccessToken fully validates a token, expiry included.
	ParseAccessToken(token string) (*domain.Principal, error)
	// PrincipalFromExpiredToken validates signature, issuer and audience but not expiry.
	PrincipalFromExpiredToken(token string) (*domain.Principal, error)
	RefreshTokenTTL() time.Duration
}
