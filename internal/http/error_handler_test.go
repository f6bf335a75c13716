package handlers_test

import (
	"net/http"
	"strings"
	"testing"
)

// Store failures surface as a friendly message without internals.
func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app, _, db := newTestApp(t)
	_ = db.Close()

	var r *http.Response
	logs := captureLogs(t, func() {
		r = doJSON(t, app, "GET", "/listings/l-aspen-cabin", nil)
	})
	if r.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", r.StatusCode)
	}
	body := bodyString(r)
	if !strings.Contains(body, "Something went wrong") {
		t.Fatalf("friendly message missing; body=%s", body)
	}
	if strings.Contains(body, "sql") || strings.Contains(body, "closed") {
		t.Fatalf("internal details leaked to user; body=%s", body)
	}
	if _, ok := findLog(logs, "server.error"); !ok {
		t.Fatal("server.error not logged")
	}

	r = doJSON(t, app, "GET", "/api/v1/listings/l-aspen-cabin", nil)
	body = bodyString(r)
	if r.StatusCode != http.StatusInternalServerError || strings.Contains(body, "closed") {
		t.Fatalf("api error leaked or wrong status: %d %s", r.StatusCode, body)
	}
}

// A catalog that loaded once keeps serving after the store goes away.
func TestCatalogServesStaleSnapshot(t *testing.T) {
	app, deps, db := newTestApp(t)

	if r := doJSON(t, app, "GET", "/api/v1/listings", nil); r.StatusCode != http.StatusOK {
		t.Fatalf("warm up: %d", r.StatusCode)
	}
	_ = db.Close()
	deps.Catalog.Invalidate()

	r := doJSON(t, app, "GET", "/api/v1/listings", nil)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("expected stale data, got %d", r.StatusCode)
	}
	if r.Header.Get("X-Catalog-Stale") != "true" {
		t.Fatal("stale response not flagged")
	}
	var out listingsResp
	decode(t, r, &out)
	if out.Count != 8 {
		t.Fatalf("expected prior snapshot, got %d listings", out.Count)
	}

	// the store-backed search falls back to the snapshot too
	r = doJSON(t, app, "GET", "/api/v1/search?min_price=200&max_price=300", nil)
	decode(t, r, &out)
	if r.StatusCode != http.StatusOK || out.Count != 2 {
		t.Fatalf("search fallback: %d %d", r.StatusCode, out.Count)
	}
}
