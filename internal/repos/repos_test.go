package repos

import (
	"context"
	"testing"
	"time"

	"staybook/internal/domain"
	"staybook/internal/search"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func titles(ls []domain.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Title
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestSeedCatalog(t *testing.T) {
	db := newDB(t)
	ls, err := NewListingRepo(db).ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, ls, 8)
	assert.Equal(t, "Luxury Beachfront Villa", ls[0].Title)
	assert.Equal(t, "Urban Loft", ls[7].Title)
	for _, l := range ls {
		assert.Len(t, l.Images, 1, l.Title)
		assert.NotEmpty(t, l.Amenities, l.Title)
		assert.Equal(t, "u-sarah", l.HostID)
	}

	// reopening an existing database must not seed twice
	require.NoError(t, seedIfEmpty(db))
	ls, err = NewListingRepo(db).ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, ls, 8)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x", false)
	assert.Error(t, err)
}

func TestListingSearch(t *testing.T) {
	r := NewListingRepo(newDB(t))
	ctx := context.Background()

	got, err := r.Search(ctx, search.Criteria{PriceMin: ptr(200.0), PriceMax: ptr(300.0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cozy Mountain Cabin", "Historic Townhouse"}, titles(got))

	got, err = r.Search(ctx, search.Criteria{Amenities: []string{"Pool", "Wifi"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Luxury Beachfront Villa", "Luxury Penthouse with City View"}, titles(got))

	got, err = r.Search(ctx, search.Criteria{Location: ptr("MASSACHUSETTS"), Types: []string{"Cottage"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Seaside Cottage"}, titles(got))

	got, err = r.Search(ctx, search.Criteria{Guests: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Luxury Beachfront Villa", "Lakefront Retreat"}, titles(got))

	// SQL and in-memory filtering agree
	all, err := r.ListActive(ctx)
	require.NoError(t, err)
	c := search.Criteria{Location: ptr("a"), PriceMax: ptr(350.0), Amenities: []string{"Kitchen"}}
	got, err = r.Search(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, titles(search.Filter(all, c)), titles(got))
}

func TestListingSearchNonASCIILocation(t *testing.T) {
	r := NewListingRepo(newDB(t))
	ctx := context.Background()

	l, err := r.Create(ctx, domain.Listing{
		HostID: "u-sarah", Title: "Old Town Flat", Location: "ZÜRICH, Switzerland", Price: 240,
		Type: "Apartment", Beds: 1, Baths: 1, Guests: 2,
	})
	require.NoError(t, err)
	require.NoError(t, r.UpdateStatus(ctx, l.ID, domain.StatusActive))

	all, err := r.ListActive(ctx)
	require.NoError(t, err)
	for _, needle := range []string{"zürich", "Zürich", "ZÜRICH", "üri"} {
		c := search.Criteria{Location: ptr(needle)}
		got, err := r.Search(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, []string{"Old Town Flat"}, titles(got), needle)
		assert.Equal(t, titles(search.Filter(all, c)), titles(got), needle)
	}

	// LIKE wildcards in the needle are plain characters
	got, err := r.Search(ctx, search.Criteria{Location: ptr("%")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListingLifecycle(t *testing.T) {
	db := newDB(t)
	r := NewListingRepo(db)
	ctx := context.Background()

	l, err := r.Create(ctx, domain.Listing{
		HostID: "u-sarah", Title: "Desert Casita", Location: "Tucson, Arizona", Price: 140,
		Type: "House", Beds: 1, Baths: 1, Guests: 2,
		Images: []string{"a.jpg", "b.jpg"}, Amenities: []string{"Wifi", "Patio", "Wifi"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, l.Status)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, l.Images)
	assert.Equal(t, []string{"Wifi", "Patio"}, l.Amenities)

	active, err := r.ListActive(ctx)
	require.NoError(t, err)
	assert.NotContains(t, titles(active), "Desert Casita")

	mine, err := r.ListByHost(ctx, "u-sarah")
	require.NoError(t, err)
	assert.Len(t, mine, 9)

	up, err := r.Update(ctx, l.ID, ListingPatch{Price: ptr(150.0)}, nil, []string{"Pool"})
	require.NoError(t, err)
	assert.Equal(t, 150.0, up.Price)
	assert.Equal(t, "Desert Casita", up.Title)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, up.Images, "nil images leave them alone")
	assert.Equal(t, []string{"Pool"}, up.Amenities)

	require.NoError(t, r.UpdateStatus(ctx, l.ID, domain.StatusActive))
	got, err := r.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)

	require.NoError(t, r.Delete(ctx, l.ID))
	_, err = r.Get(ctx, l.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, l.ID), ErrNotFound)
	assert.ErrorIs(t, r.UpdateStatus(ctx, "missing", domain.StatusActive), ErrNotFound)
}

func TestBookedListingIsLocked(t *testing.T) {
	db := newDB(t)
	lr, br := NewListingRepo(db), NewBookingRepo(db)
	ctx := context.Background()

	b, err := br.Create(ctx, domain.Booking{
		ListingID: "l-aspen-cabin", GuestID: "u-alice", FirstName: "Alice", LastName: "Walker",
		Email: "alice@staybook.test", Phone: "555-0100", CheckIn: "2025-04-15", CheckOut: "2025-04-20",
		Guests: 2, Nights: 5, NightlyRate: 220, Subtotal: 1100, CleaningFee: 75, ServiceFee: 132, Total: 1307,
		PaymentRef: "pay_1", CardLast4: "4242",
	})
	require.NoError(t, err)
	assert.Equal(t, "Cozy Mountain Cabin", b.ListingName)
	assert.Equal(t, "u-sarah", b.HostID)
	assert.Equal(t, domain.BookingConfirmed, b.Status)

	_, err = lr.Update(ctx, "l-aspen-cabin", ListingPatch{Title: ptr("x")}, nil, nil)
	assert.ErrorIs(t, err, ErrListingLocked)
	assert.ErrorIs(t, lr.Delete(ctx, "l-aspen-cabin"), ErrListingLocked)
	assert.NoError(t, lr.UpdateStatus(ctx, "l-aspen-cabin", domain.StatusInactive))

	guest, err := br.ListByGuest(ctx, "u-alice")
	require.NoError(t, err)
	assert.Len(t, guest, 1)
	host, err := br.ListByHost(ctx, "u-sarah")
	require.NoError(t, err)
	assert.Len(t, host, 1)
	none, err := br.ListByHost(ctx, "u-alice")
	require.NoError(t, err)
	assert.Empty(t, none)

	n, gross, err := br.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1307.0, gross)

	// anonymous checkout
	anon, err := br.Create(ctx, domain.Booking{
		ListingID: "l-chicago-loft", FirstName: "Bo", LastName: "Li", Email: "bo@example.com", Phone: "1",
		CheckIn: "2025-05-01", CheckOut: "2025-05-02", Guests: 1, Nights: 1, PaymentRef: "pay_2",
	})
	require.NoError(t, err)
	assert.Empty(t, anon.GuestID)
}

func TestUsersAndSessions(t *testing.T) {
	db := newDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()

	u, err := r.ByEmail(ctx, "ALICE@staybook.test")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)

	_, err = r.Create(ctx, domain.User{Email: "Alice@Staybook.test", Hash: "x", Role: domain.RoleUser})
	assert.ErrorIs(t, err, ErrEmailTaken)

	nu, err := r.Create(ctx, domain.User{Email: "new@example.com", FirstName: "N", Hash: "x", Role: domain.RoleHost})
	require.NoError(t, err)
	assert.NotEmpty(t, nu.ID)

	require.NoError(t, r.BindSession(ctx, "sid-1", nu.ID, time.Now().Add(time.Hour)))
	su, err := r.SessionUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, nu.ID, su.ID)
	require.NoError(t, r.UnbindSession(ctx, "sid-1"))
	_, err = r.SessionUser(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.BindSession(ctx, "sid-old", nu.ID, time.Now().Add(-time.Minute)))
	_, err = r.SessionUser(ctx, "sid-old")
	assert.ErrorIs(t, err, ErrNotFound, "expired session")

	up, err := r.UpdateProfile(ctx, nu.ID, ptr("Nina"), nil, ptr("https://example.com/a.png"))
	require.NoError(t, err)
	assert.Equal(t, "Nina", up.FirstName)
	assert.Equal(t, "https://example.com/a.png", up.AvatarURL)

	require.NoError(t, r.UpdateRole(ctx, nu.ID, domain.RoleAdmin))
	assert.ErrorIs(t, r.UpdateRole(ctx, "nobody", domain.RoleAdmin), ErrNotFound)

	counts, err := r.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"admin": 2, "host": 1, "user": 1}, counts)

	sums, err := r.ListWithCounts(ctx)
	require.NoError(t, err)
	byEmail := map[string]int{}
	for _, s := range sums {
		byEmail[s.Email] = s.PropertiesCount
	}
	assert.Equal(t, 8, byEmail["sarah@staybook.test"])
	assert.Equal(t, 0, byEmail["alice@staybook.test"])
}

func TestPasswordResetSingleUse(t *testing.T) {
	db := newDB(t)
	r := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, r.CreateReset(ctx, "tok", "u-alice", time.Now().Add(time.Hour)))
	id, err := r.ConsumeReset(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", id)
	_, err = r.ConsumeReset(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.CreateReset(ctx, "old", "u-alice", time.Now().Add(-time.Hour)))
	_, err = r.ConsumeReset(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContactMessages(t *testing.T) {
	r := NewContactRepo(newDB(t))
	ctx := context.Background()

	m, err := r.Create(ctx, domain.ContactMessage{Name: "Ann", Email: "ann@example.com", Subject: "Hi", Message: "Question"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Question", all[0].Message)
}
