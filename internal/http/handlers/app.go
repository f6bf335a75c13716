package handlers

import (
	"errors"
	"strings"
	"time"

	"staybook/internal/config"
	applog "staybook/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
)

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// errorHandler logs the failure and answers without leaking internals.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < 500 {
			msg = fe.Message
		}
	}
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	}
	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

func tooMany(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
	}
}

// NewApp builds the Fiber application with middleware and every route.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: errorHandler,
		BodyLimit:    1 << 20, // 1 MiB
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(Authenticate(d.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:          120,
		Expiration:   time.Minute,
		LimitReached: tooMany("rate.global.hit"),
	}))

	searchLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|search"
		},
		LimitReached: tooMany("rate.search.hit"),
	})

	// ---------- Pages ----------
	app.Get("/", d.PageHandler.Home)
	app.Get("/search", searchLimiter, d.PageHandler.Search)
	app.Get("/listings/:id", d.PageHandler.Listing)
	app.Get("/bookings/:id", d.PageHandler.Booking)

	// ---------- API ----------
	api := app.Group("/api/v1")
	api.Get("/listings", d.ListingHandler.List)
	api.Get("/listings/:id", d.ListingHandler.Get)
	api.Get("/search", searchLimiter, d.ListingHandler.Search)
	api.Post("/listings/:id/quote", d.BookingHandler.Quote)
	api.Post("/bookings", limiter.New(limiter.Config{
		Max:          10,
		Expiration:   time.Minute,
		LimitReached: tooMany("rate.booking.hit"),
	}), d.BookingHandler.Place)
	api.Get("/bookings/:id", d.BookingHandler.Get)
	api.Post("/contact", limiter.New(limiter.Config{
		Max:          5,
		Expiration:   10 * time.Minute,
		LimitReached: tooMany("rate.contact.hit"),
	}), d.ContactHandler.Submit)

	auth := api.Group("/auth")
	auth.Post("/register", d.AuthHandler.Register)
	auth.Post("/login", limiter.New(limiter.Config{
		Max:          5,
		Expiration:   10 * time.Minute,
		LimitReached: tooMany("rate.login.hit"),
	}), d.AuthHandler.Login)
	auth.Post("/logout", d.AuthHandler.Logout)
	auth.Post("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.Post("/reset-password", d.AuthHandler.ResetPassword)

	me := api.Group("/me", RequireUser())
	me.Get("/", d.AuthHandler.Me)
	me.Patch("/", d.AuthHandler.UpdateMe)
	me.Get("/bookings", d.BookingHandler.Mine)

	host := api.Group("/host", RequireRole("host", "admin"))
	host.Get("/listings", d.HostHandler.List)
	host.Post("/listings", d.HostHandler.Create)
	host.Patch("/listings/:id", d.HostHandler.Update)
	host.Delete("/listings/:id", d.HostHandler.Delete)
	host.Get("/bookings", d.BookingHandler.Host)

	admin := api.Group("/admin", RequireAdmin())
	admin.Get("/stats", d.AdminHandler.Stats)
	admin.Get("/users", d.AdminHandler.Users)
	admin.Patch("/users/:id/role", d.AdminHandler.SetRole)
	admin.Get("/listings", d.AdminHandler.Listings)
	admin.Patch("/listings/:id/status", d.AdminHandler.SetStatus)
	admin.Get("/bookings", d.AdminHandler.AllBookings)
	admin.Get("/messages", d.AdminHandler.Messages)
	admin.Post("/catalog/refresh", d.AdminHandler.RefreshCatalog)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	return app
}
