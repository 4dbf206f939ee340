package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// AuthService implements registration, login and the refresh/reset token flows.
type AuthService struct {
	users    ports.UserRepository
	tokens   ports.TokenService
	cache    ports.Cache
	notifier ports.Notifier
	resetTTL time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenService,
	cache ports.Cache,
	notifier ports.Notifier,
	resetTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		cache:    orNopCache(cache),
		notifier: orNopNotifier(notifier),
		resetTTL: resetTTL,
		log:      log,
		now:      utcNow,
	}
}

// Register creates a Patient or Doctor account and signs it in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	var fe fieldErrors
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		fe.add("email", "is required")
	}
	if in.Password == "" {
		fe.add("password", "is required")
	}
	if in.Role != domain.RolePatient && in.Role != domain.RoleDoctor {
		fe.add("role", "must be Patient or Doctor")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.Conflict("a user with email '%s' already exists", email)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
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
	s.cache.Remove(ctx, keyUsersAll, keyUsersDoctors)

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("user registered")
	return &ports.AuthResult{User: toUserView(user), Tokens: *pair}, nil
}

// Login never reveals whether the email exists: both failure paths return
// ErrInvalidCredentials after a bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			checkPassword(string(dummyHash()), password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: toUserView(user), Tokens: *pair}, nil
}

// RefreshToken exchanges a (possibly expired) access token and the current
// refresh token for a new pair. The presented refresh token stops working.
func (s *AuthService) RefreshToken(ctx context.Context, accessToken, refreshToken string) (*ports.TokenPair, error) {
	principal, err := s.tokens.PrincipalFromExpiredToken(accessToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, principal.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	presented := HashToken(refreshToken)
	if user.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshTokenHash)) != 1 ||
		!s.now().Before(user.RefreshTokenExpiry) {
		return nil, domain.ErrInvalidToken
	}

	next, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return nil, err
	}
	rotated, err := s.users.RotateRefreshToken(ctx, user.ID, presented, HashToken(next), s.now().Add(s.tokens.RefreshTokenTTL()))
	if err != nil {
		return nil, fmt.Errorf("refresh token: rotate: %w", err)
	}
	if !rotated {
		s.log.Warn().Str("user_id", user.ID).Msg("refresh token reused after rotation")
		return nil, domain.ErrInvalidToken
	}

	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("refresh token: issue access token: %w", err)
	}
	return &ports.TokenPair{AccessToken: access, RefreshToken: next}, nil
}

// Logout revokes the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.SetRefreshToken(ctx, userID, "", time.Time{})
}

// ForgotPassword reports success whether or not the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.log.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("forgot password: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.resetTTL)
	user.PasswordResetTokenHash = HashToken(token)
	user.PasswordResetExpiry = expiresAt
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	// Delivery is left to whatever consumes the event.
	s.notifier.Notify(ports.Notification{
		Type:   ports.NotifyPasswordResetRequested,
		UserID: user.ID,
		Payload: map[string]any{
			"email":     user.Email,
			"token":     token,
			"expiresAt": expiresAt,
		},
		OccurredAt: s.now(),
	})
	s.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// ResetPassword consumes a reset token, sets the new password and revokes the
// refresh token so every session has to sign in again.
func (s *AuthService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	if in.NewPassword == "" {
		return domain.Invalid("newPassword", "is required")
	}
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(in.Email))
	if err != nil {
		if isNotFound(err) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if user.PasswordResetTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(HashToken(in.Token)), []byte(user.PasswordResetTokenHash)) != 1 ||
		!s.now().Before(user.PasswordResetExpiry) {
		return domain.ErrInvalidToken
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("reset password: hash password: %w", err)
	}
	user.PasswordHash = hash
	user.PasswordResetTokenHash = ""
	user.PasswordResetExpiry = time.Time{}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, "", time.Time{}); err != nil {
		return fmt.Errorf("reset password: revoke refresh token: %w", err)
	}
	s.cache.Remove(ctx, userKey(user.ID))

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*ports.UserView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := toUserView(user)
	return &v, nil
}

// issueTokens signs an access token and stores the digest of a new refresh
// token, replacing whatever was stored before.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*ports.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return nil, err
	}
	expiry := s.now().Add(s.tokens.RefreshTokenTTL())
	if err := s.users.SetRefreshToken(ctx, user.ID, HashToken(refresh), expiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshTokenHash = HashToken(refresh)
	user.RefreshTokenExpiry = expiry
	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
