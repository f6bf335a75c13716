package handlers_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestHostListingLifecycle(t *testing.T) {
	app, _, _ := newTestApp(t)
	host := login(t, app, "sarah@staybook.test")
	admin := login(t, app, "admin@staybook.test")

	r := doJSON(t, app, "POST", "/api/v1/host/listings", map[string]any{
		"title": "Desert Casita", "location": "Tucson, Arizona", "price": 140, "type": "House",
		"beds": 1, "baths": 1, "guests": 2,
		"images":    []string{"https://images.example.com/casita.jpg"},
		"amenities": []string{"Wifi", "Patio"},
	}, withToken(host))
	if r.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", r.StatusCode, bodyString(r))
	}
	var l struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		HostID string `json:"host_id"`
	}
	decode(t, r, &l)
	if l.Status != "pending" || l.HostID != "u-sarah" {
		t.Fatalf("new listing: %+v", l)
	}

	// pending listings are hidden from the public
	if r := doJSON(t, app, "GET", "/api/v1/listings/"+l.ID, nil); r.StatusCode != http.StatusNotFound {
		t.Fatalf("pending listing visible to public: %d", r.StatusCode)
	}
	if r := doJSON(t, app, "GET", "/api/v1/listings/"+l.ID, nil, withToken(host)); r.StatusCode != http.StatusOK {
		t.Fatalf("owner cannot see pending listing: %d", r.StatusCode)
	}

	r = doJSON(t, app, "PATCH", "/api/v1/host/listings/"+l.ID, map[string]any{"price": 150, "amenities": []string{"Wifi", "Pool"}}, withToken(host))
	if r.StatusCode != http.StatusOK {
		t.Fatalf("update: %d body=%s", r.StatusCode, bodyString(r))
	}
	var up struct {
		Price     float64  `json:"price"`
		Images    []string `json:"images"`
		Amenities []string `json:"amenities"`
	}
	decode(t, r, &up)
	if up.Price != 150 || len(up.Images) != 1 || len(up.Amenities) != 2 || up.Amenities[1] != "Pool" {
		t.Fatalf("patched listing: %+v", up)
	}

	// approve, then it shows up in search
	doJSON(t, app, "PATCH", "/api/v1/admin/listings/"+l.ID+"/status", map[string]string{"status": "active"}, withToken(admin))
	r = doJSON(t, app, "GET", "/api/v1/search?location=tucson", nil)
	var found listingsResp
	decode(t, r, &found)
	if found.Count != 1 {
		t.Fatalf("approved listing not searchable: %+v", found)
	}
	r = doJSON(t, app, "GET", "/search?amenities=Pool&location=tucson", nil)
	if page := bodyString(r); r.StatusCode != http.StatusOK || !strings.Contains(page, "Desert Casita") {
		t.Fatalf("approved listing missing from search page")
	}

	// other hosts cannot touch it
	resp := doJSON(t, app, "POST", "/api/v1/auth/register", map[string]string{
		"email": "rival@example.com", "password": "Str0ng!pass", "first_name": "R", "last_name": "H", "role": "host",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register rival: %d", resp.StatusCode)
	}
	rival := login(t, app, "rival@example.com")
	if r := doJSON(t, app, "PATCH", "/api/v1/host/listings/"+l.ID, map[string]any{"price": 1}, withToken(rival)); r.StatusCode != http.StatusForbidden {
		t.Fatalf("rival update: expected 403, got %d", r.StatusCode)
	}
	if r := doJSON(t, app, "DELETE", "/api/v1/host/listings/"+l.ID, nil, withToken(rival)); r.StatusCode != http.StatusForbidden {
		t.Fatalf("rival delete: expected 403, got %d", r.StatusCode)
	}

	if r := doJSON(t, app, "DELETE", "/api/v1/host/listings/"+l.ID, nil, withToken(host)); r.StatusCode != http.StatusNoContent {
		t.Fatalf("owner delete: expected 204, got %d", r.StatusCode)
	}
	if r := doJSON(t, app, "GET", "/api/v1/search?location=tucson", nil); r.StatusCode != http.StatusOK {
		t.Fatalf("search after delete: %d", r.StatusCode)
	} else {
		var after listingsResp
		decode(t, r, &after)
		if after.Count != 0 {
			t.Fatalf("deleted listing still searchable")
		}
	}
}

func TestHostListingValidation(t *testing.T) {
	app, _, _ := newTestApp(t)
	host := login(t, app, "sarah@staybook.test")

	cases := []struct {
		body  map[string]any
		field string
	}{
		{map[string]any{"location": "X", "price": 10, "type": "House", "guests": 1}, "title"},
		{map[string]any{"title": "T", "location": "X", "price": 0, "type": "House", "guests": 1}, "price"},
		{map[string]any{"title": "T", "location": "X", "price": 10, "type": "House", "guests": 0}, "guests"},
		{map[string]any{"title": "T", "location": "X", "price": 10, "type": "House", "guests": 1, "images": []string{"javascript:alert(1)"}}, "images"},
		{map[string]any{"title": "T", "location": "X", "price": 10, "type": "House", "guests": 1, "amenities": []string{"<b>"}}, "amenities"},
	}
	for _, tc := range cases {
		r := doJSON(t, app, "POST", "/api/v1/host/listings", tc.body, withToken(host))
		if r.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.field, r.StatusCode)
		}
		var e struct {
			Field string `json:"field"`
		}
		decode(t, r, &e)
		if e.Field != tc.field {
			t.Fatalf("expected field %q, got %q", tc.field, e.Field)
		}
	}
}
