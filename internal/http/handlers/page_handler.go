package handlers

import (
	"errors"
	"strconv"

	applog "staybook/internal/log"
	"staybook/internal/pricing"
	"staybook/internal/repos"
	"staybook/internal/search"
	"staybook/internal/services"
	"staybook/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type PageHandler struct {
	Catalog  *services.CatalogService
	Bookings *services.BookingService
}

const featuredCount = 4

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

// GET /
func (h *PageHandler) Home(c *fiber.Ctx) error {
	ls, err := h.Catalog.Featured(c.UserContext(), featuredCount)
	if ls == nil && err != nil {
		applog.Error(c, "page.home.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).Render("notfound", fiber.Map{"Message": "Listings are unavailable right now."})
	}
	markStale(c, err)
	return render(c, "home", fiber.Map{"Listings": ls})
}

// GET /search
func (h *PageHandler) Search(c *fiber.Ctx) error {
	crit, err := search.ParseQuery(func(k string) string { return c.Query(k) })
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"err": err.Error()})
		c.Status(fiber.StatusBadRequest)
		return render(c, "search", fiber.Map{"Err": err.Error(), "Query": c.Queries()})
	}
	ls, err := h.Catalog.Search(c.UserContext(), crit)
	if ls == nil && err != nil {
		applog.Error(c, "page.search.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).Render("notfound", fiber.Map{"Message": "Search is unavailable right now."})
	}
	markStale(c, err)
	return render(c, "search", fiber.Map{"Listings": ls, "Count": len(ls), "Query": c.Queries()})
}

// GET /listings/:id[?check_in=&check_out=&guests=]
func (h *PageHandler) Listing(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This stay is no longer available")
	}
	l, err := h.Catalog.GetVisible(c.UserContext(), currentUser(c), id)
	if errors.Is(err, repos.ErrNotFound) {
		return notFound(c, "This stay is no longer available")
	}
	if err != nil {
		return err
	}

	data := fiber.Map{"Listing": l}
	in, out := c.Query("check_in"), c.Query("check_out")
	if in != "" && out != "" {
		q, err := h.Bookings.Quote(c.UserContext(), l.ID, in, out, c.QueryInt("guests", 1))
		switch {
		case err == nil:
			data["Quote"] = q
		case services.IsValidation(err):
			data["QuoteErr"] = "Please choose a check-out date after check-in for up to " +
				strconv.Itoa(l.Guests) + " guests."
		default:
			data["QuoteErr"] = "This stay cannot be booked right now."
		}
		data["CheckIn"], data["CheckOut"] = in, out
	}
	data["CleaningFee"] = pricing.CleaningFee
	return render(c, "listing", data)
}

// GET /bookings/:id
func (h *PageHandler) Booking(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Booking not found")
	}
	b, err := h.Bookings.Get(c.UserContext(), currentUser(c), id)
	if errors.Is(err, repos.ErrNotFound) || errors.Is(err, services.ErrForbidden) {
		return notFound(c, "Booking not found")
	}
	if err != nil {
		return err
	}
	return render(c, "booking", fiber.Map{"Booking": b})
}
