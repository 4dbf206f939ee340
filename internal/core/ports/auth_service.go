package ports

import (
	"context"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// RegisterInput carries self-registration data.
type RegisterInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           domain.Role
	Specialization string
}

// ResetPasswordInput carries the data needed to complete a password reset.
type ResetPasswordInput struct {
	Email       string
	Token       string
	NewPassword string
}

// TokenPair is a freshly issued access token with its refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User   UserView
	Tokens TokenPair
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	Me(ctx context.Context, userID string) (*UserView, error)
}
