package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

const refreshTokenBytes = 32

// TokenConfig holds the signing parameters. SigningKey, Issuer and Audience
// are required.
type TokenConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// accessClaims is the payload of an access token; the subject is the user id.
type accessClaims struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues HS256 access tokens and opaque refresh tokens.
type TokenService struct {
	key        []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService fails when any required signing parameter is missing; callers
// treat that as a fatal startup condition.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	switch {
	case cfg.SigningKey == "":
		return nil, errors.New("token service: signing key is not configured")
	case cfg.Issuer == "":
		return nil, errors.New("token service: issuer is not configured")
	case cfg.Audience == "":
		return nil, errors.New("token service: audience is not configured")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		key:        []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

func (s *TokenService) IssueAccessToken(user *domain.User) (string, error) {
	now := s.now()
	claims := accessClaims{
		Email: user.Email,
		Name:  user.FullName(),
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

// IssueRefreshToken returns 256 random bits, base64 encoded. The token carries
// no claims; it is only valid while its digest is stored on the user.
func (s *TokenService) IssueRefreshToken() (string, error) {
	return randomToken()
}

func (s *TokenService) RefreshTokenTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) ParseAccessToken(token string) (*domain.Principal, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return claims.principal()
}

// PrincipalFromExpiredToken checks signature, algorithm, issuer and audience
// while ignoring expiry, so a holder of a lapsed access token can refresh it.
func (s *TokenService) PrincipalFromExpiredToken(token string) (*domain.Principal, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer", domain.ErrInvalidToken)
	}
	if !slices.Contains(claims.Audience, s.audience) {
		return nil, fmt.Errorf("%w: unexpected audience", domain.ErrInvalidToken)
	}
	return claims.principal()
}

func (s *TokenService) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.key, nil
}

func (c *accessClaims) principal() (*domain.Principal, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	if !c.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidToken, c.Role)
	}
	return &domain.Principal{ID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}, nil
}

// HashToken returns the hex SHA-256 digest persisted in place of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
