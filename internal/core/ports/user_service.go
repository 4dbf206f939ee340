package ports

import (
	"context"
	"io"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// CreateUserInput carries admin-initiated account creation data.
type CreateUserInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           domain.Role
	Specialization string
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Email          *string
	FirstName      *string
	LastName       *string
	Specialization *string
	Role           *domain.Role
}

// UserService defines use-case operations for user accounts.
type UserService interface {
	List(ctx context.Context) ([]UserView, error)
	ListDoctors(ctx context.Context) ([]UserView, error)
	Get(ctx context.Context, id string) (*UserView, error)
	Create(ctx context.Context, input CreateUserInput) (*UserView, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*UserView, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	UpdateProfilePicture(ctx context.Context, id, url string) (*UserView, error)
	UploadProfilePicture(ctx context.Context, id string, r io.Reader, size int64, contentType string) (*UserView, error)
	Delete(ctx context.Context, id string) error
}
