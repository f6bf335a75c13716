package handlers

import (
	"strings"
	"time"

	"staybook/internal/log"
	"staybook/internal/services"
	"staybook/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type registerBody struct {
	credentials
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Role      string `json:"role" form:"role"`
}

func setSessionCookie(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  expires,
	})
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in registerBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return badRequest(c, "email", "enter a valid email address")
	}
	if !validate.Password(in.Password) {
		return badRequest(c, "password", "password needs 8-64 characters with upper and lower case, a digit and a symbol")
	}
	first, ok := validate.Name(in.FirstName)
	if !ok {
		return badRequest(c, "first_name", "first name is required")
	}
	last, ok := validate.Name(in.LastName)
	if !ok {
		return badRequest(c, "last_name", "last name is required")
	}

	u, err := h.Auth.Register(c.UserContext(), services.RegisterInput{
		Email: email, Password: in.Password, FirstName: first, LastName: last, Role: strings.ToLower(in.Role),
	})
	if err != nil {
		log.Security(c, "auth.register.fail", map[string]any{"email": email, "reason": err.Error()})
		return apiError(c, "auth.register", err)
	}
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	email, ok := validate.Email(in.Email)
	if !ok || in.Password == "" {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}

	sess, err := h.Auth.SignIn(c.UserContext(), email, in.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return apiError(c, "auth.login", err)
	}
	setSessionCookie(c, sess.ID, sess.ExpiresAt)
	c.Locals("user", sess.User)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(sess)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid, _ := c.Locals("sid").(string)
	if sid == "" {
		sid = c.Cookies("sid")
	}
	if sid != "" {
		if err := h.Auth.SignOut(c.UserContext(), sid); err != nil {
			log.Error(c, "auth.logout.fail", err, nil)
		}
	}
	setSessionCookie(c, "", time.Now().Add(-1*time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}

// GET /api/v1/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// PATCH /api/v1/me
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	var p services.ProfilePatch
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if p.FirstName != nil {
		v, ok := validate.Name(*p.FirstName)
		if !ok {
			return badRequest(c, "first_name", "first name cannot be empty")
		}
		p.FirstName = &v
	}
	if p.LastName != nil {
		v, ok := validate.Name(*p.LastName)
		if !ok {
			return badRequest(c, "last_name", "last name cannot be empty")
		}
		p.LastName = &v
	}
	if p.AvatarURL != nil && strings.TrimSpace(*p.AvatarURL) != "" {
		v, ok := validate.URL(*p.AvatarURL)
		if !ok {
			return badRequest(c, "avatar_url", "avatar must be an http(s) URL")
		}
		p.AvatarURL = &v
	}

	u, err := h.Auth.UpdateProfile(c.UserContext(), currentUser(c).ID, p)
	if err != nil {
		return apiError(c, "profile.update", err)
	}
	log.Audit(c, "profile.update", nil)
	return c.JSON(u)
}

// POST /api/v1/auth/forgot-password always answers 202 so it does not reveal which emails have accounts.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var in credentials
	_ = c.BodyParser(&in)
	if email, ok := validate.Email(in.Email); ok {
		if err := h.Auth.ForgotPassword(c.UserContext(), email); err != nil {
			log.Error(c, "auth.forgot.fail", err, nil)
		}
	}
	log.Audit(c, "auth.forgot", nil)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ok": true})
}

// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in struct {
		Token    string `json:"token" form:"token"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if strings.TrimSpace(in.Token) == "" {
		return badRequest(c, "token", "reset token is required")
	}
	if !validate.Password(in.Password) {
		return badRequest(c, "password", "password needs 8-64 characters with upper and lower case, a digit and a symbol")
	}
	if err := h.Auth.ResetPassword(c.UserContext(), in.Token, in.Password); err != nil {
		log.Security(c, "auth.reset.fail", nil)
		return apiError(c, "auth.reset", err)
	}
	log.Audit(c, "auth.reset", nil)
	return c.JSON(fiber.Map{"ok": true})
}
