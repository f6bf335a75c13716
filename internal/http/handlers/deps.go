package handlers

import (
	"staybook/internal/config"
	"staybook/internal/payment"
	"staybook/internal/repos"
	"staybook/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService

	AuthHandler    *AuthHandler
	ListingHandler *ListingHandler
	BookingHandler *BookingHandler
	HostHandler    *HostHandler
	AdminHandler   *AdminHandler
	ContactHandler *ContactHandler
	PageHandler    *PageHandler
}

// NewDeps wires repositories, services and handlers. A nil gateway selects
// the simulated processor with cfg.PaymentDelay.
func NewDeps(db *sqlx.DB, cfg config.Config, gw payment.Gateway) *Deps {
	userRepo := repos.NewUserRepo(db)
	listingRepo := repos.NewListingRepo(db)
	bookingRepo := repos.NewBookingRepo(db)
	contactRepo := repos.NewContactRepo(db)

	if gw == nil {
		gw = payment.NewSimulated(cfg.PaymentDelay)
	}
	authSvc := services.NewAuthService(userRepo, services.NewTokenIssuer(cfg.JWTSecret), cfg.SessionTTL)
	catalogSvc := services.NewCatalogService(listingRepo)
	bookingSvc := services.NewBookingService(catalogSvc, bookingRepo, gw)
	adminSvc := services.NewAdminService(userRepo, listingRepo, bookingRepo, contactRepo)
	contactSvc := services.NewContactService(contactRepo)

	return &Deps{
		Auth:           authSvc,
		Catalog:        catalogSvc,
		AuthHandler:    &AuthHandler{Auth: authSvc},
		ListingHandler: &ListingHandler{Catalog: catalogSvc},
		BookingHandler: &BookingHandler{Bookings: bookingSvc},
		HostHandler:    &HostHandler{Catalog: catalogSvc},
		AdminHandler:   &AdminHandler{Admin: adminSvc, Catalog: catalogSvc, Bookings: bookingSvc},
		ContactHandler: &ContactHandler{Contact: contactSvc},
		PageHandler:    &PageHandler{Catalog: catalogSvc, Bookings: bookingSvc},
	}
}
