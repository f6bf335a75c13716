package handlers

import (
	"staybook/internal/search"
	"staybook/internal/services"
	"staybook/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ListingHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/listings
func (h *ListingHandler) List(c *fiber.Ctx) error {
	ls, err := h.Catalog.Listings(c.UserContext())
	if ls == nil && err != nil {
		return apiError(c, "listings.list", err)
	}
	markStale(c, err)
	return c.JSON(fiber.Map{"listings": ls, "count": len(ls)})
}

// GET /api/v1/listings/:id
func (h *ListingHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid listing id")
	}
	l, err := h.Catalog.GetVisible(c.UserContext(), currentUser(c), id)
	if err != nil {
		return apiError(c, "listings.get", err)
	}
	return c.JSON(l)
}

// GET /api/v1/search?location=&type=&amenities=&min_price=&max_price=&guests=
func (h *ListingHandler) Search(c *fiber.Ctx) error {
	crit, err := search.ParseQuery(func(k string) string { return c.Query(k) })
	if err != nil {
		return apiError(c, "search", err)
	}
	ls, err := h.Catalog.Query(c.UserContext(), crit)
	if ls == nil && err != nil {
		return apiError(c, "search", err)
	}
	markStale(c, err)
	return c.JSON(fiber.Map{"listings": ls, "count": len(ls)})
}
