package ports

import (
	"context"
	"time"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Lookups of a missing user return a *domain.NotFoundError; writes that would
// duplicate an email return a *domain.ConflictError.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	// Update replaces every mutable field except the refresh token pair.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error

	// SetRefreshToken overwrites the stored refresh token digest unconditionally.
	// An empty hash clears it.
	SetRefreshToken(ctx context.Context, id, tokenHash string, expiry time.Time) error
	// RotateRefreshToken swaps oldHash for newHash only while oldHash is still the
	// stored digest. It reports false when another rotation got there first.
	RotateRefreshToken(ctx context.Context, id, oldHash, newHash string, expiry time.Time) (bool, error)
}
