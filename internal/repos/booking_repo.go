package repos

import (
	"context"
	"database/sql"
	"errors"

	"staybook/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BookingRepo struct{ db *sqlx.DB }

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingSelect = `
  SELECT b.id, b.listing_id, l.title AS listing_title, l.host_id, COALESCE(b.guest_id,'') AS guest_id,
         b.first_name, b.last_name, b.email, b.phone, b.check_in, b.check_out, b.guests, b.nights,
         b.nightly_rate, b.subtotal, b.cleaning_fee, b.service_fee, b.total, b.status,
         b.payment_ref, b.card_last4, b.created_at
  FROM bookings b
  JOIN listings l ON l.id = b.listing_id`

// Create stores a paid booking and fills in its ID and timestamp.
func (r *BookingRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = domain.BookingConfirmed
	}
	b.CreatedAt = now()

	var guestID any
	if b.GuestID != "" {
		guestID = b.GuestID
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO bookings(id, listing_id, guest_id, first_name, last_name, email, phone, check_in, check_out,
		                     guests, nights, nightly_rate, subtotal, cleaning_fee, service_fee, total, status,
		                     payment_ref, card_last4, created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		b.ID, b.ListingID, guestID, b.FirstName, b.LastName, b.Email, b.Phone, b.CheckIn, b.CheckOut,
		b.Guests, b.Nights, b.NightlyRate, b.Subtotal, b.CleaningFee, b.ServiceFee, b.Total, b.Status,
		b.PaymentRef, b.CardLast4, b.CreatedAt)
	if err != nil {
		return b, err
	}
	return r.Get(ctx, b.ID)
}

func (r *BookingRepo) Get(ctx context.Context, id string) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.GetContext(ctx, &b, r.db.Rebind(bookingSelect+` WHERE b.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

func (r *BookingRepo) ListByGuest(ctx context.Context, guestID string) ([]domain.Booking, error) {
	return r.list(ctx, ` WHERE b.guest_id = ?`, guestID)
}

// ListByHost returns bookings on any listing owned by hostID.
func (r *BookingRepo) ListByHost(ctx context.Context, hostID string) ([]domain.Booking, error) {
	return r.list(ctx, ` WHERE l.host_id = ?`, hostID)
}

func (r *BookingRepo) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return r.list(ctx, ``)
}

// Totals returns the booking count and summed totals.
func (r *BookingRepo) Totals(ctx context.Context) (int, float64, error) {
	var row struct {
		N   int     `db:"n"`
		Sum float64 `db:"gross"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT COUNT(*) AS n, COALESCE(SUM(total), 0) AS gross FROM bookings`)
	return row.N, row.Sum, err
}

func (r *BookingRepo) list(ctx context.Context, where string, args ...any) ([]domain.Booking, error) {
	out := []domain.Booking{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(bookingSelect+where+` ORDER BY b.created_at DESC, b.id`), args...)
	return out, err
}
