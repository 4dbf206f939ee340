package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

type authFixture struct {
	svc      *AuthService
	repo     *stubUserRepo
	tokens   *TokenService
	notifier *recordingNotifier
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newStubUserRepo()
	tokens := newTestTokenService(t)
	notifier := &recordingNotifier{}
	svc := NewAuthService(repo, tokens, newStubCache(), notifier, time.Hour, zerolog.Nop())
	return &authFixture{svc: svc, repo: repo, tokens: tokens, notifier: notifier}
}

func registerPatient(t *testing.T, f *authFixture) *ports.AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:     "Patient@Example.com ",
		Password:  "s3cret-pass",
		FirstName: "Pat",
		LastName:  "Ient",
		Role:      domain.RolePatient,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return res
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerPatient(t, f)

	if reg.User.Email != "patient@example.com" {
		t.Fatalf("expected normalised email, got %q", reg.User.Email)
	}
	if reg.Tokens.AccessToken == "" || reg.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens on registration")
	}
	stored := f.repo.users[reg.User.ID]
	if stored.PasswordHash == "s3cret-pass" || !checkPassword(stored.PasswordHash, "s3cret-pass") {
		t.Fatalf("expected bcrypt hash to be stored")
	}
	if stored.RefreshTokenHash == reg.Tokens.RefreshToken || stored.RefreshTokenHash != HashToken(reg.Tokens.RefreshToken) {
		t.Fatalf("expected refresh token digest to be stored")
	}

	res, err := f.svc.Login(context.Background(), "patient@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Fatalf("expected user id %s, got %s", reg.User.ID, res.User.ID)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens")
	}
	p, err := f.tokens.ParseAccessToken(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if p.Role != domain.RolePatient || p.Name != "Pat Ient" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthService_Login_DoesNotRevealUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	registerPatient(t, f)

	_, wrongPass := f.svc.Login(context.Background(), "patient@example.com", "nope")
	_, unknown := f.svc.Login(context.Background(), "ghost@example.com", "nope")

	if wrongPass != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if unknown != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknown)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "a@b.c", Password: "x", Role: domain.RoleAdmin})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for admin self-registration, got %v", err)
	}
	if verr.Fields[0].Field != "role" {
		t.Fatalf("unexpected field errors: %+v", verr.Fields)
	}
	if len(f.repo.users) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	registerPatient(t, f)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email: "patient@example.com", Password: "other", Role: domain.RoleDoctor,
	})
	if !errors.Is(err, domain.ErrConflict) || !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthService_Register_DropsSpecializationForPatients(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email: "p2@example.com", Password: "pw", Role: domain.RolePatient, Specialization: "Cardiology",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.User.Specialization != "" {
		t.Fatalf("expected specialization to be cleared, got %q", res.User.Specialization)
	}
}

func TestAuthService_RefreshToken_IsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerPatient(t, f)

	pair, err := f.svc.RefreshToken(context.Background(), reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh returned error: %v", err)
	}
	if pair.RefreshToken == reg.Tokens.RefreshToken {
		t.Fatalf("expected a rotated refresh token")
	}

	if _, err := f.svc.RefreshToken(context.Background(), reg.Tokens.AccessToken, reg.Tokens.RefreshToken); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}

	if _, err := f.svc.RefreshToken(context.Background(), pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("rotated token should work once: %v", err)
	}
}

func TestAuthService_RefreshToken_Rejects(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerPatient(t, f)

	t.Run("expired refresh token", func(t *testing.T) {
		f.svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
		defer func() { f.svc.now = utcNow }()
		if _, err := f.svc.RefreshToken(context.Background(), reg.Tokens.AccessToken, reg.Tokens.RefreshToken); err != domain.ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("bad access token", func(t *testing.T) {
		if _, err := f.svc.RefreshToken(context.Background(), "garbage", reg.Tokens.RefreshToken); err != domain.ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("after logout", func(t *testing.T) {
		if err := f.svc.Logout(context.Background(), reg.User.ID); err != nil {
			t.Fatalf("Logout returned error: %v", err)
		}
		if _, err := f.svc.RefreshToken(context.Background(), reg.Tokens.AccessToken, reg.Tokens.RefreshToken); err != domain.ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestAuthService_ForgotPassword_UnknownEmailSucceedsSilently(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("expected no notification, got %v", f.notifier.types())
	}
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerPatient(t, f)
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "patient@example.com"); err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Type != ports.NotifyPasswordResetRequested {
		t.Fatalf("expected reset notification, got %v", f.notifier.types())
	}
	token := f.notifier.sent[0].Payload.(map[string]any)["token"].(string)
	if f.repo.users[reg.User.ID].PasswordResetTokenHash != HashToken(token) {
		t.Fatalf("expected reset token digest to be stored")
	}

	if err := f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "patient@example.com", Token: "wrong", NewPassword: "new-pass"}); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong token, got %v", err)
	}
	if err := f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "patient@example.com", Token: token, NewPassword: "new-pass"}); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	if _, err := f.svc.Login(ctx, "patient@example.com", "s3cret-pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password should stop working, got %v", err)
	}
	if _, err := f.svc.Login(ctx, "patient@example.com", "new-pass"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "patient@example.com", Token: token, NewPassword: "again"}); err != domain.ErrInvalidToken {
		t.Fatalf("reset token must be single use, got %v", err)
	}
}

func TestAuthService_ResetPassword_RevokesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerPatient(t, f)
	ctx := context.Background()

	_ = f.svc.ForgotPassword(ctx, "patient@example.com")
	token := f.notifier.sent[0].Payload.(map[string]any)["token"].(string)
	if err := f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "patient@example.com", Token: token, NewPassword: "new-pass"}); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	if _, err := f.svc.RefreshToken(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken); err != domain.ErrInvalidToken {
		t.Fatalf("expected refresh token to be revoked, got %v", err)
	}
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t)
	reg := registerPatient(t, f)

	v, err := f.svc.Me(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if v.Email != "patient@example.com" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if _, err := f.svc.Me(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
