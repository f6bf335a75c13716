package handlers

import (
	"errors"

	"staybook/internal/checkout"
	"staybook/internal/domain"
	applog "staybook/internal/log"
	"staybook/internal/payment"
	"staybook/internal/pricing"
	"staybook/internal/repos"
	"staybook/internal/search"
	"staybook/internal/services"

	"github.com/gofiber/fiber/v2"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	return c.Render(tmpl, data)
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// badRequest reports a rejected field and logs it as a validation failure.
func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "field": field})
}

// apiError maps service errors to a status and a message safe to show.
func apiError(c *fiber.Ctx, action string, err error) error {
	var ve *checkout.ValidationError
	var re *pricing.InvalidRangeError
	var pe *search.ParamError
	switch {
	case errors.As(err, &ve):
		return badRequest(c, ve.Field, ve.Error())
	case errors.As(err, &re):
		return badRequest(c, "check_out", "check-out must be after check-in")
	case errors.As(err, &pe):
		return badRequest(c, pe.Param, pe.Error())
	case errors.Is(err, repos.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, services.ErrForbidden):
		applog.Security(c, "access.denied", map[string]any{"action": action})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, repos.ErrListingLocked), errors.Is(err, repos.ErrEmailTaken),
		errors.Is(err, checkout.ErrListingUnavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrBadCreds):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStatus):
		return badRequest(c, "status", err.Error())
	case errors.Is(err, services.ErrInvalidRole):
		return badRequest(c, "role", err.Error())
	case errors.Is(err, services.ErrResetExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case payment.IsPaymentError(err):
		applog.Security(c, "payment.declined", map[string]any{"action": action})
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
}

// markStale flags responses served from an older catalog snapshot.
func markStale(c *fiber.Ctx, err error) {
	if err != nil {
		applog.Error(c, "catalog.stale", err, nil)
		c.Set("X-Catalog-Stale", "true")
	}
}
