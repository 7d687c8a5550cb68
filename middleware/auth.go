// middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"
	"tournament-wallet-service/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalExternalUserID = "external_user_id"
	LocalUserID         = "user_id"
	LocalUserRoles      = "user_roles"

	RoleAdmin = "admin"
)

// UserResolver maps the gateway's user ID onto the local mirror.
type UserResolver interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// UserContextMiddleware extracts user identity and roles set by the gateway.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, strings.ToLower(r))
			}
		}

		c.Locals(LocalExternalUserID, strings.TrimSpace(c.Get("X-User-ID")))
		c.Locals(LocalUserRoles, roles)
		return c.Next()
	}
}

// RequireUser rejects requests without a known user and stores the local user ID.
func RequireUser(users UserResolver) fiber.Handler {
	log := utils.Component("user_ctx")

	return func(c *fiber.Ctx) error {
		externalID, _ := c.Locals(LocalExternalUserID).(string)
		if externalID == "" {
			log.Warnf("❌ X-User-ID required but missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		user, err := users.GetUserByExternalID(c.UserContext(), externalID)
		if err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "user profile not synced yet",
				})
			}
			log.WithError(err).Error("failed to resolve user")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to resolve user"})
		}

		c.Locals(LocalUserID, user.ID)
		return c.Next()
	}
}

// RequireRole lets through only callers carrying role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !HasRole(c, role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": role + " role required"})
		}
		return c.Next()
	}
}

func HasRole(c *fiber.Ctx, role string) bool {
	roles, _ := c.Locals(LocalUserRoles).([]string)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserID returns the local user ID set by RequireUser.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// Reviewer names the admin acting on a request.
func Reviewer(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalExternalUserID).(string)
	return id
}
