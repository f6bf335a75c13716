package services

import (
	"context"
	"errors"

	"staybook/internal/checkout"
	"staybook/internal/domain"
	applog "staybook/internal/log"
	"staybook/internal/payment"
	"staybook/internal/pricing"
	"staybook/internal/repos"
)

type BookingRequest struct {
	ListingID string             `json:"listing_id"`
	CheckIn   string             `json:"check_in"`
	CheckOut  string             `json:"check_out"`
	Guests    int                `json:"guests"`
	Guest     checkout.Guest     `json:"guest"`
	Card      payment.Instrument `json:"card"`
}

type BookingService struct {
	Catalog  *CatalogService
	Bookings *repos.BookingRepo
	Gateway  payment.Gateway
}

func NewBookingService(catalog *CatalogService, bookings *repos.BookingRepo, gw payment.Gateway) *BookingService {
	return &BookingService{Catalog: catalog, Bookings: bookings, Gateway: gw}
}

// start loads the listing and runs the date step of a new flow.
func (s *BookingService) start(ctx context.Context, listingID, checkIn, checkOut string, guests int) (*checkout.Flow, error) {
	l, err := s.Catalog.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	f, err := checkout.New(l)
	if err != nil {
		return nil, err
	}
	r, err := pricing.ParseRange(checkIn, checkOut)
	if err != nil {
		return nil, &checkout.ValidationError{Field: "dates", Reason: err.Error()}
	}
	if _, err := f.SetDates(r, guests); err != nil {
		return nil, err
	}
	return f, nil
}

// Quote prices a stay without booking it.
func (s *BookingService) Quote(ctx context.Context, listingID, checkIn, checkOut string, guests int) (pricing.Breakdown, error) {
	f, err := s.start(ctx, listingID, checkIn, checkOut, guests)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return f.Quote(), nil
}

// Place runs the whole checkout and stores the booking once payment succeeds.
// guest is nil for anonymous checkout.
func (s *BookingService) Place(ctx context.Context, guest *domain.User, req BookingRequest) (domain.Booking, error) {
	f, err := s.start(ctx, req.ListingID, req.CheckIn, req.CheckOut, req.Guests)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := f.SetGuest(req.Guest); err != nil {
		return domain.Booking{}, err
	}
	rc, err := f.Pay(ctx, s.Gateway, req.Card)
	if err != nil {
		return domain.Booking{}, err
	}

	q, g := f.Quote(), f.GuestInfo()
	b := domain.Booking{
		ListingID:   f.Listing().ID,
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		Email:       g.Email,
		Phone:       g.Phone,
		CheckIn:     f.Dates().CheckIn.Format(pricing.DateLayout),
		CheckOut:    f.Dates().CheckOut.Format(pricing.DateLayout),
		Guests:      f.Guests(),
		Nights:      q.Nights,
		NightlyRate: q.NightlyRate,
		Subtotal:    q.Subtotal,
		CleaningFee: q.CleaningFee,
		ServiceFee:  q.ServiceFee,
		Total:       q.Total,
		Status:      domain.BookingConfirmed,
		PaymentRef:  rc.ID,
		CardLast4:   rc.Last4,
	}
	if guest != nil {
		b.GuestID = guest.ID
	}
	saved, err := s.Bookings.Create(ctx, b)
	if err != nil {
		// the card was charged; the receipt id is needed to reconcile
		applog.Error(nil, "booking.persist", err, map[string]any{"payment_ref": rc.ID, "amount": rc.Amount})
		return domain.Booking{}, err
	}
	return saved, nil
}

// Get returns a booking the viewer may see: its guest, the listing's host,
// or an admin. Bookings made without an account are reachable by id.
func (s *BookingService) Get(ctx context.Context, viewer *domain.User, id string) (domain.Booking, error) {
	b, err := s.Bookings.Get(ctx, id)
	if err != nil {
		return b, err
	}
	if b.GuestID == "" {
		return b, nil
	}
	if viewer == nil {
		return domain.Booking{}, ErrForbidden
	}
	if viewer.Role == domain.RoleAdmin || viewer.ID == b.GuestID || viewer.ID == b.HostID {
		return b, nil
	}
	return domain.Booking{}, ErrForbidden
}

func (s *BookingService) History(ctx context.Context, u *domain.User) ([]domain.Booking, error) {
	return s.Bookings.ListByGuest(ctx, u.ID)
}

func (s *BookingService) HostBookings(ctx context.Context, u *domain.User) ([]domain.Booking, error) {
	if u.Role != domain.RoleHost && u.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.Bookings.ListByHost(ctx, u.ID)
}

func (s *BookingService) All(ctx context.Context) ([]domain.Booking, error) {
	return s.Bookings.ListAll(ctx)
}

// IsValidation reports whether err is caused by bad input rather than a failure.
func IsValidation(err error) bool {
	var ve *checkout.ValidationError
	var re *pricing.InvalidRangeError
	return errors.As(err, &ve) || errors.As(err, &re)
}
