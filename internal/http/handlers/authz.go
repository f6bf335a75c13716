package handlers

import (
	"strings"

	"staybook/internal/domain"
	applog "staybook/internal/log"
	"staybook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Authenticate attaches the signed-in user, if any. A Bearer token takes
// precedence over the sid cookie.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if tok := bearerToken(c); tok != "" {
			if u, sid, err := auth.TokenUser(ctx, tok); err == nil {
				c.Locals("user", u)
				c.Locals("sid", sid)
			}
		} else if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(ctx, sid); err == nil {
				c.Locals("user", u)
				c.Locals("sid", sid)
			}
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireUser rejects anonymous requests.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
		}
		return c.Next()
	}
}

// RequireRole admits signed-in users holding one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
		}
		for _, r := range roles {
			if u.Role == r {
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.role", map[string]any{"role": u.Role, "need": roles})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}
}

func RequireAdmin() fiber.Handler { return RequireRole(domain.RoleAdmin) }
