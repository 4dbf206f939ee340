package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// MaxProfilePictureBytes bounds profile picture uploads.
const MaxProfilePictureBytes = 5 << 20

var profilePictureExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UserService struct {
	users   ports.UserRepository
	cache   ports.Cache
	storage ports.ObjectStorage
	log     zerolog.Logger
	now     func() time.Time
}

// NewUserService builds the service. storage may be nil, in which case uploads
// fail with domain.ErrUnavailable.
func NewUserService(users ports.UserRepository, cache ports.Cache, storage ports.ObjectStorage, log zerolog.Logger) *UserService {
	return &UserService{
		users:   users,
		cache:   orNopCache(cache),
		storage: storage,
		log:     log,
		now:     utcNow,
	}
}

func (s *UserService) List(ctx context.Context) ([]ports.UserView, error) {
	return cached(ctx, s.cache, keyUsersAll, ttlUsers, func(ctx context.Context) ([]ports.UserView, error) {
		users, err := s.users.List(ctx)
		if err != nil {
			return nil, err
		}
		return toUserViews(users), nil
	})
}

func (s *UserService) ListDoctors(ctx context.Context) ([]ports.UserView, error) {
	return cached(ctx, s.cache, keyUsersDoctors, ttlUsers, func(ctx context.Context) ([]ports.UserView, error) {
		users, err := s.users.ListByRole(ctx, domain.RoleDoctor)
		if err != nil {
			return nil, err
		}
		return toUserViews(users), nil
	})
}

func (s *UserService) Get(ctx context.Context, id string) (*ports.UserView, error) {
	v, err := cached(ctx, s.cache, userKey(id), ttlUsers, func(ctx context.Context) (ports.UserView, error) {
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			return ports.UserView{}, err
		}
		return toUserView(u), nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create is the admin path for account creation; any role is accepted.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*ports.UserView, error) {
	var fe fieldErrors
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		fe.add("email", "is required")
	}
	if in.Password == "" {
		fe.add("password", "is required")
	}
	if !in.Role.IsValid() {
		fe.add("role", "must be one of Patient, Doctor, Admin")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.Conflict("a user with email '%s' already exists", email)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}
	now := s.now()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           in.Role,
		Specialization: normalizeSpecialization(in.Role, in.Specialization),
		PasswordHash:   hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)

	s.log.Info().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("user created")
	v := toUserView(user)
	return &v, nil
}

func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*ports.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, domain.Invalid("email", "must not be empty")
		}
		if email != user.Email {
			existing, err := s.users.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, domain.Conflict("a user with email '%s' already exists", email)
			case err != nil && !isNotFound(err):
				return nil, fmt.Errorf("update user: %w", err)
			}
			user.Email = email
		}
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, domain.Invalid("role", "must be one of Patient, Doctor, Admin")
		}
		user.Role = *in.Role
	}
	if in.Specialization != nil {
		user.Specialization = *in.Specialization
	}
	user.Specialization = normalizeSpecialization(user.Role, user.Specialization)
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)

	v := toUserView(user)
	return &v, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if newPassword == "" {
		return domain.Invalid("newPassword", "is required")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, currentPassword) {
		return domain.ErrInvalidCredentials
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("change password: hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.invalidate(ctx, user.ID)
	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *UserService) UpdateProfilePicture(ctx context.Context, id, url string) (*ports.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.setProfilePicture(ctx, user, strings.TrimSpace(url))
}

// UploadProfilePicture stores the image in object storage and points the
// user's profile picture at it.
func (s *UserService) UploadProfilePicture(ctx context.Context, id string, r io.Reader, size int64, contentType string) (*ports.UserView, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("profile picture upload: %w", domain.ErrUnavailable)
	}
	ext, ok := profilePictureExt[strings.ToLower(contentType)]
	if !ok {
		return nil, domain.Invalid("file", "must be a JPEG, PNG or WebP image")
	}
	if size <= 0 || size > MaxProfilePictureBytes {
		return nil, domain.Invalid("file", "must be between 1 byte and 5 MiB")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profile-pictures/%s/%s%s", user.ID, uuid.NewString(), ext)
	url, err := s.storage.Put(ctx, key, r, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("profile picture upload: %w", err)
	}
	return s.setProfilePicture(ctx, user, url)
}

func (s *UserService) setProfilePicture(ctx context.Context, user *domain.User, url string) (*ports.UserView, error) {
	user.ProfilePictureURL = url
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)
	v := toUserView(user)
	return &v, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	s.cache.Remove(ctx, keyUsersAll, keyUsersDoctors, userKey(id))
}
