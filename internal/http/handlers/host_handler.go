package handlers

import (
	"strconv"
	"strings"

	"staybook/internal/domain"
	applog "staybook/internal/log"
	"staybook/internal/repos"
	"staybook/internal/services"
	"staybook/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type HostHandler struct {
	Catalog *services.CatalogService
}

type listingBody struct {
	repos.ListingPatch
	Images    []string `json:"images"`
	Amenities []string `json:"amenities"`
}

type fieldError struct{ field, msg string }

// check validates the fields present in b. With full set, the
// fields a new listing needs must all be there.
func (b *listingBody) check(full bool) *fieldError {
	text := func(field string, v **string, limit int) *fieldError {
		if *v == nil {
			if full {
				return &fieldError{field, field + " is required"}
			}
			return nil
		}
		s, ok := validate.Text(**v, limit)
		if !ok {
			return &fieldError{field, field + " must be 1-" + strconv.Itoa(limit) + " characters"}
		}
		*v = &s
		return nil
	}
	if fe := text("title", &b.Title, 120); fe != nil {
		return fe
	}
	if fe := text("location", &b.Location, 120); fe != nil {
		return fe
	}
	if fe := text("type", &b.Type, 40); fe != nil {
		return fe
	}
	if b.Description != nil {
		d := strings.TrimSpace(*b.Description)
		if len(d) > 4000 {
			return &fieldError{"description", "description is too long"}
		}
		b.Description = &d
	}
	switch {
	case b.Price == nil && full:
		return &fieldError{"price", "price is required"}
	case b.Price != nil && !validate.Price(*b.Price):
		return &fieldError{"price", "price must be greater than 0"}
	case b.Guests == nil && full:
		return &fieldError{"guests", "guests is required"}
	case b.Guests != nil && *b.Guests < 1:
		return &fieldError{"guests", "guests must be at least 1"}
	case b.Beds != nil && *b.Beds < 0:
		return &fieldError{"beds", "beds cannot be negative"}
	case b.Baths != nil && *b.Baths < 0:
		return &fieldError{"baths", "baths cannot be negative"}
	}
	for i, u := range b.Images {
		v, ok := validate.URL(u)
		if !ok {
			return &fieldError{"images", "images must be http(s) URLs"}
		}
		b.Images[i] = v
	}
	if b.Amenities != nil {
		tags, ok := validate.Tags(b.Amenities)
		if !ok {
			return &fieldError{"amenities", "amenities contain unsupported characters"}
		}
		b.Amenities = tags
	}
	return nil
}

func (b *listingBody) listing() domain.Listing {
	l := domain.Listing{
		Title:     *b.Title,
		Location:  *b.Location,
		Type:      *b.Type,
		Price:     *b.Price,
		Guests:    *b.Guests,
		Images:    b.Images,
		Amenities: b.Amenities,
	}
	if b.Description != nil {
		l.Description = *b.Description
	}
	if b.Beds != nil {
		l.Beds = *b.Beds
	}
	if b.Baths != nil {
		l.Baths = *b.Baths
	}
	return l
}

// GET /api/v1/host/listings
func (h *HostHandler) List(c *fiber.Ctx) error {
	ls, err := h.Catalog.HostListings(c.UserContext(), currentUser(c))
	if err != nil {
		return apiError(c, "host.listings", err)
	}
	return c.JSON(fiber.Map{"listings": ls})
}

// POST /api/v1/host/listings
func (h *HostHandler) Create(c *fiber.Ctx) error {
	var in listingBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if fe := in.check(true); fe != nil {
		return badRequest(c, fe.field, fe.msg)
	}
	l, err := h.Catalog.CreateListing(c.UserContext(), currentUser(c), in.listing())
	if err != nil {
		return apiError(c, "host.listing.create", err)
	}
	applog.Audit(c, "listing.created", map[string]any{"listing_id": l.ID})
	return c.Status(fiber.StatusCreated).JSON(l)
}

// PATCH /api/v1/host/listings/:id
func (h *HostHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid listing id")
	}
	var in listingBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if fe := in.check(false); fe != nil {
		return badRequest(c, fe.field, fe.msg)
	}
	l, err := h.Catalog.UpdateListing(c.UserContext(), currentUser(c), id, in.ListingPatch, in.Images, in.Amenities)
	if err != nil {
		return apiError(c, "host.listing.update", err)
	}
	applog.Audit(c, "listing.updated", map[string]any{"listing_id": id})
	return c.JSON(l)
}

// DELETE /api/v1/host/listings/:id
func (h *HostHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid listing id")
	}
	if err := h.Catalog.DeleteListing(c.UserContext(), currentUser(c), id); err != nil {
		return apiError(c, "host.listing.delete", err)
	}
	applog.Audit(c, "listing.deleted", map[string]any{"listing_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
