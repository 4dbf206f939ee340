package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/policy"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users. Admin only, enforced by the route.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// ListDoctors handles GET /users/doctors.
func (h *UserHandler) ListDoctors(c echo.Context) error {
	users, err := h.service.ListDoctors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if err := authorizeOwner(c, id); err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(*user))
}

// Create handles POST /users. Admin only, enforced by the route.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}

	user, err := h.service.Create(c.Request().Context(), ports.CreateUserInput{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           role,
		Specialization: req.Specialization,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(*user))
}

// Update handles PUT /users/:id. Only admins may change a role.
func (h *UserHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if !policy.CanAccessOwnedResource(p, id) {
		return domain.ErrForbidden
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateUserInput{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialization: req.Specialization,
	}
	if req.Role != nil {
		if !policy.IsAdmin(p) {
			return domain.ErrForbidden
		}
		role, err := parseRole(*req.Role)
		if err != nil {
			return err
		}
		in.Role = &role
	}

	user, err := h.service.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(*user))
}

// ChangePassword handles PATCH /users/:id/password. Owner only, admins included.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if p.ID != id {
		return domain.ErrForbidden
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.ChangePassword(c.Request().Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfilePicture handles PATCH /users/:id/profile-picture. A multipart
// "file" part is stored in object storage; a JSON body sets the URL directly.
func (h *UserHandler) UpdateProfilePicture(c echo.Context) error {
	id := c.Param("id")
	if err := authorizeOwner(c, id); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return domain.Invalid("file", "is required")
		}
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
		}
		defer f.Close()

		user, err := h.service.UploadProfilePicture(ctx, id, f, fh.Size, fh.Header.Get(echo.HeaderContentType))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toUserResponse(*user))
	}

	var req profilePictureRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateProfilePicture(ctx, id, req.ProfilePictureURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(*user))
}

// Delete handles DELETE /users/:id. Admin only, enforced by the route.
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// authorizeOwner allows admins and the owner of ownerID.
func authorizeOwner(c echo.Context, ownerID string) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	if !policy.CanAccessOwnedResource(p, ownerID) {
		return domain.ErrForbidden
	}
	return nil
}
