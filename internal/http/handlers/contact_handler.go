package handlers

import (
	"staybook/internal/domain"
	applog "staybook/internal/log"
	"staybook/internal/services"
	"staybook/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ContactHandler struct {
	Contact *services.ContactService
}

// POST /api/v1/contact
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var in domain.ContactMessage
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	var ok bool
	if in.Name, ok = validate.Text(in.Name, 100); !ok {
		return badRequest(c, "name", "name is required")
	}
	if in.Email, ok = validate.Email(in.Email); !ok {
		return badRequest(c, "email", "enter a valid email address")
	}
	if in.Subject, ok = validate.Text(in.Subject, 200); !ok {
		return badRequest(c, "subject", "subject is required")
	}
	if in.Message, ok = validate.Text(in.Message, 5000); !ok {
		return badRequest(c, "message", "message is required")
	}
	m, err := h.Contact.Submit(c.UserContext(), in)
	if err != nil {
		return apiError(c, "contact.submit", err)
	}
	applog.Audit(c, "contact.submit", map[string]any{"id": m.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": m.ID})
}
