package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/social-login/internal/api/dto"
)

// PublicHandler serves endpoints that never need an identity.
type PublicHandler struct{}

// NewPublicHandler constructs handler.
func NewPublicHandler() *PublicHandler {
	return &PublicHandler{}
}

// Home handles GET /.
func (h *PublicHandler) Home(c *fiber.Ctx) error {
	return c.SendString("Public page")
}

// Public handles GET /api/public.
func (h *PublicHandler) Public(c *fiber.Ctx) error {
	return c.JSON(dto.MessageResponse{Message: "This is a public endpoint"})
}
