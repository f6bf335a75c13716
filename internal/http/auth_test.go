package handlers_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"staybook/internal/services"
)

func TestRegisterLoginMeLogout(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", map[string]string{
		"email": "new.host@example.com", "password": "Str0ng!pass", "first_name": "Nia", "last_name": "Host", "role": "host",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", resp.StatusCode, bodyString(resp))
	}
	body := bodyString(resp)
	if strings.Contains(body, "password_hash") || strings.Contains(body, "Str0ng") {
		t.Fatalf("register response leaks credentials: %s", body)
	}

	resp = doJSON(t, app, "POST", "/api/v1/auth/register", map[string]string{
		"email": "NEW.HOST@example.com", "password": "Str0ng!pass", "first_name": "Nia", "last_name": "Host",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/v1/auth/login", map[string]string{"email": "new.host@example.com", "password": "Str0ng!pass"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var sid string
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			sid = c.Value
		}
	}
	if sid == "" {
		t.Fatal("login did not set sid cookie")
	}
	var sess struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(t, resp, &sess)
	if sess.User.Role != "host" {
		t.Fatalf("expected host role, got %q", sess.User.Role)
	}

	// cookie and bearer both authenticate
	if r := doJSON(t, app, "GET", "/api/v1/me", nil, withCookie("sid", sid)); r.StatusCode != http.StatusOK {
		t.Fatalf("me via cookie: %d", r.StatusCode)
	}
	if r := doJSON(t, app, "GET", "/api/v1/me", nil, withToken(sess.Token)); r.StatusCode != http.StatusOK {
		t.Fatalf("me via token: %d", r.StatusCode)
	}

	resp = doJSON(t, app, "PATCH", "/api/v1/me", map[string]string{"first_name": "Nina"}, withToken(sess.Token))
	var me struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	decode(t, resp, &me)
	if me.FirstName != "Nina" || me.LastName != "Host" {
		t.Fatalf("profile patch: got %+v", me)
	}

	if r := doJSON(t, app, "POST", "/api/v1/auth/logout", nil, withToken(sess.Token)); r.StatusCode != http.StatusOK {
		t.Fatalf("logout: %d", r.StatusCode)
	}
	if r := doJSON(t, app, "GET", "/api/v1/me", nil, withToken(sess.Token)); r.StatusCode != http.StatusUnauthorized {
		t.Fatalf("token should be revoked after logout, got %d", r.StatusCode)
	}
	if r := doJSON(t, app, "GET", "/api/v1/me", nil, withCookie("sid", sid)); r.StatusCode != http.StatusUnauthorized {
		t.Fatalf("cookie should be revoked after logout, got %d", r.StatusCode)
	}
}

func TestRegisterCannotClaimAdmin(t *testing.T) {
	app, _, _ := newTestApp(t)
	resp := doJSON(t, app, "POST", "/api/v1/auth/register", map[string]string{
		"email": "sneaky@example.com", "password": "Str0ng!pass", "first_name": "S", "last_name": "N", "role": "admin",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAuthLogging(t *testing.T) {
	app, _, _ := newTestApp(t)

	fail := captureLogs(t, func() {
		doJSON(t, app, "POST", "/api/v1/auth/login", map[string]string{"email": "alice@staybook.test", "password": "nope"})
	})
	e, ok := findLog(fail, "auth.login.fail")
	if !ok {
		t.Fatal("auth.login.fail log not found")
	}
	if _, ok := e.Fields["email"]; !ok {
		t.Fatal("auth.login.fail missing email field")
	}

	success := captureLogs(t, func() { login(t, app, "alice@staybook.test") })
	e, ok = findLog(success, "auth.login.success")
	if !ok {
		t.Fatal("auth.login.success log not found")
	}
	if e.Level != "audit" || e.UserID != "u-alice" {
		t.Fatalf("unexpected success entry: %+v", e)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	app, deps, _ := newTestApp(t)
	var outbox bytes.Buffer
	deps.Auth.Notifier = &services.OutboxNotifier{W: &outbox}

	resp := doJSON(t, app, "POST", "/api/v1/auth/forgot-password", map[string]string{"email": "nobody@example.com"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("unknown email: expected 202, got %d", resp.StatusCode)
	}

	var token string
	logs := captureLogs(t, func() {
		resp = doJSON(t, app, "POST", "/api/v1/auth/forgot-password", map[string]string{"email": "alice@staybook.test"})
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("known email: expected 202, got %d", resp.StatusCode)
	}
	for _, f := range strings.Fields(outbox.String()) {
		if strings.HasPrefix(f, "reset-token=") {
			token = strings.TrimPrefix(f, "reset-token=")
		}
	}
	if token == "" {
		t.Fatal("reset token was not delivered")
	}
	e, ok := findLog(logs, "password.reset_link")
	if !ok {
		t.Fatal("password.reset_link not logged")
	}
	for k, v := range e.Fields {
		if s, _ := v.(string); strings.Contains(s, token) {
			t.Fatalf("reset token leaked to the log in field %s", k)
		}
	}

	resp = doJSON(t, app, "POST", "/api/v1/auth/reset-password", map[string]string{"token": token, "password": "weak"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("weak password: expected 400, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "POST", "/api/v1/auth/reset-password", map[string]string{"token": token, "password": "Fresh!Pass9"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d body=%s", resp.StatusCode, bodyString(resp))
	}
	resp = doJSON(t, app, "POST", "/api/v1/auth/reset-password", map[string]string{"token": token, "password": "Fresh!Pass9"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("reused token: expected 400, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "POST", "/api/v1/auth/login", map[string]string{"email": "alice@staybook.test", "password": "Fresh!Pass9"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login with new password: %d", resp.StatusCode)
	}
}
