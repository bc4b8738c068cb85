package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/social-login/internal/api/dto"
	"github.com/spec-kit/social-login/internal/auth"
	apperrors "github.com/spec-kit/social-login/pkg/util"
)

// UserHandler exposes endpoints for the authenticated caller.
type UserHandler struct{}

// NewUserHandler constructs handler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me handles GET /api/me.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewForbidden("authentication required")
	}
	return c.JSON(dto.MeResponse{Email: identity.Email})
}

// Attributes handles GET /secure. It returns every attribute carried by the
// caller's identity; the access token only carries the email.
func (h *UserHandler) Attributes(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewForbidden("authentication required")
	}
	return c.JSON(fiber.Map{"email": identity.Email})
}
