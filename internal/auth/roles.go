package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/social-login/pkg/util"
)

// RequireIdentity ensures the gate attached an identity to the request.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewForbidden("authentication required")
		}
		return c.Next()
	}
}
