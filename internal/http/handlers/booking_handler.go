package handlers

import (
	"strings"
	"time"

	applog "staybook/internal/log"
	"staybook/internal/services"
	"staybook/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type BookingHandler struct {
	Bookings *services.BookingService
}

type quoteBody struct {
	CheckIn  string `json:"check_in" form:"check_in"`
	CheckOut string `json:"check_out" form:"check_out"`
	Guests   int    `json:"guests" form:"guests"`
}

// POST /api/v1/listings/:id/quote
func (h *BookingHandler) Quote(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid listing id")
	}
	var in quoteBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if in.Guests == 0 {
		in.Guests = 1
	}
	q, err := h.Bookings.Quote(c.UserContext(), id, in.CheckIn, in.CheckOut, in.Guests)
	if err != nil {
		return apiError(c, "booking.quote", err)
	}
	return c.JSON(q)
}

// POST /api/v1/bookings
func (h *BookingHandler) Place(c *fiber.Ctx) error {
	var req services.BookingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	id, ok := validate.ID(req.ListingID)
	if !ok {
		return badRequest(c, "listing_id", "invalid listing id")
	}
	req.ListingID = id
	if strings.TrimSpace(req.Guest.Email) != "" {
		if _, ok := validate.Email(req.Guest.Email); !ok {
			return badRequest(c, "email", "enter a valid email address")
		}
	}
	if strings.TrimSpace(req.Guest.Phone) != "" {
		if _, ok := validate.Phone(req.Guest.Phone); !ok {
			return badRequest(c, "phone", "enter a valid phone number")
		}
	}

	start := time.Now()
	b, err := h.Bookings.Place(c.UserContext(), currentUser(c), req)
	applog.Timed(c, "booking.checkout", start, map[string]any{"listing_id": req.ListingID, "ok": err == nil})
	if err != nil {
		return apiError(c, "booking.place", err)
	}
	applog.Audit(c, "booking.confirmed", map[string]any{"booking_id": b.ID, "listing_id": b.ListingID, "total": b.Total})
	return c.Status(fiber.StatusCreated).JSON(b)
}

// GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid booking id")
	}
	b, err := h.Bookings.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return apiError(c, "booking.get", err)
	}
	return c.JSON(b)
}

// GET /api/v1/me/bookings
func (h *BookingHandler) Mine(c *fiber.Ctx) error {
	bs, err := h.Bookings.History(c.UserContext(), currentUser(c))
	if err != nil {
		return apiError(c, "booking.history", err)
	}
	return c.JSON(fiber.Map{"bookings": bs})
}

// GET /api/v1/host/bookings
func (h *BookingHandler) Host(c *fiber.Ctx) error {
	bs, err := h.Bookings.HostBookings(c.UserContext(), currentUser(c))
	if err != nil {
		return apiError(c, "booking.host", err)
	}
	return c.JSON(fiber.Map{"bookings": bs})
}
