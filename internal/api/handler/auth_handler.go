package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
	"github.com/carepoint/scheduling-api/internal/pkg/metrics"
)

const forgotPasswordMessage = "If the email is registered, password reset instructions have been sent."

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           role,
		Specialization: req.Specialization,
	})
	recordAttempt("register", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAuthResponse(res))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	recordAttempt("login", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAuthResponse(res))
}

// RefreshToken handles POST /auth/refresh-token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.RefreshToken(c.Request().Context(), req.AccessToken, req.RefreshToken)
	recordAttempt("refresh", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// ForgotPassword handles POST /auth/forgot-password. The response is the
// same whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageOnlyResponse{Message: forgotPasswordMessage})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.authService.ResetPassword(c.Request().Context(), ports.ResetPasswordInput{
		Email:       req.Email,
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	recordAttempt("reset_password", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageOnlyResponse{Message: "Password has been reset."})
}

// Logout handles POST /auth/logout and revokes the caller's refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), p.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Me(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(*user))
}

func recordAttempt(operation string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		result = "rejected"
	default:
		result = "failure"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(operation, result).Inc()
}
