package handlers

import (
	"time"

	applog "staybook/internal/log"
	"staybook/internal/services"
	"staybook/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Admin    *services.AdminService
	Catalog  *services.CatalogService
	Bookings *services.BookingService
}

// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Admin.Stats(c.UserContext())
	if err != nil {
		return apiError(c, "admin.stats", err)
	}
	return c.JSON(st)
}

// GET /api/v1/admin/users
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	us, err := h.Admin.ListUsers(c.UserContext())
	if err != nil {
		return apiError(c, "admin.users", err)
	}
	return c.JSON(fiber.Map{"users": us})
}

// PATCH /api/v1/admin/users/:id/role
func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid user id")
	}
	var in struct {
		Role string `json:"role" form:"role"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if err := h.Admin.SetRole(c.UserContext(), currentUser(c), id, in.Role); err != nil {
		return apiError(c, "admin.users.role", err)
	}
	applog.Audit(c, "admin.users.role", map[string]any{"target": id, "role": in.Role})
	return c.JSON(fiber.Map{"ok": true})
}

// GET /api/v1/admin/listings
func (h *AdminHandler) Listings(c *fiber.Ctx) error {
	ls, err := h.Catalog.AllListings(c.UserContext())
	if err != nil {
		return apiError(c, "admin.listings", err)
	}
	return c.JSON(fiber.Map{"listings": ls})
}

// PATCH /api/v1/admin/listings/:id/status
func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid listing id")
	}
	var in struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if err := h.Catalog.SetStatus(c.UserContext(), id, in.Status); err != nil {
		return apiError(c, "admin.listings.status", err)
	}
	applog.Audit(c, "admin.listings.status", map[string]any{"listing_id": id, "status": in.Status})
	return c.JSON(fiber.Map{"ok": true})
}

// GET /api/v1/admin/bookings
func (h *AdminHandler) AllBookings(c *fiber.Ctx) error {
	bs, err := h.Bookings.All(c.UserContext())
	if err != nil {
		return apiError(c, "admin.bookings", err)
	}
	return c.JSON(fiber.Map{"bookings": bs})
}

// GET /api/v1/admin/messages
func (h *AdminHandler) Messages(c *fiber.Ctx) error {
	ms, err := h.Admin.Messages(c.UserContext())
	if err != nil {
		return apiError(c, "admin.messages", err)
	}
	return c.JSON(fiber.Map{"messages": ms})
}

// POST /api/v1/admin/catalog/refresh
func (h *AdminHandler) RefreshCatalog(c *fiber.Ctx) error {
	start := time.Now()
	if err := h.Catalog.Refresh(c.UserContext()); err != nil {
		applog.Error(c, "admin.catalog.refresh.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "catalog refresh failed; serving previous data"})
	}
	applog.Timed(c, "admin.catalog.refresh", start, nil)
	return c.JSON(fiber.Map{"ok": true, "loaded_at": h.Catalog.LoadedAt()})
}
