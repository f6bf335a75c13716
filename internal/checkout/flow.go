// Package checkout drives a single booking from date selection to a
// confirmed, paid reservation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"staybook/internal/domain"
	"staybook/internal/payment"
	"staybook/internal/pricing"
)

type State int

const (
	CollectingDates State = iota
	CollectingGuestInfo
	CollectingPayment
	Confirmed
)

func (s State) String() string {
	switch s {
	case CollectingDates:
		return "collecting_dates"
	case CollectingGuestInfo:
		return "collecting_guest_info"
	case CollectingPayment:
		return "collecting_payment"
	case Confirmed:
		return "confirmed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrInvalidTransition  = errors.New("checkout: step not allowed in current state")
	ErrListingUnavailable = errors.New("checkout: listing is not available for booking")
)

// ValidationError names the form field that failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

type Guest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Flow holds the state of one booking screen. It is not safe for concurrent use.
type Flow struct {
	listing domain.Listing
	state   State

	dates   pricing.DateRange
	guests  int
	quote   pricing.Breakdown
	guest   Guest
	receipt payment.Receipt
}

// New starts a flow for l. Only active listings can be booked.
func New(l domain.Listing) (*Flow, error) {
	if l.Status != domain.StatusActive {
		return nil, ErrListingUnavailable
	}
	return &Flow{listing: l, state: CollectingDates}, nil
}

func (f *Flow) State() State             { return f.state }
func (f *Flow) Quote() pricing.Breakdown { return f.quote }
func (f *Flow) Receipt() payment.Receipt { return f.receipt }
func (f *Flow) Listing() domain.Listing  { return f.listing }
func (f *Flow) Dates() pricing.DateRange { return f.dates }
func (f *Flow) GuestInfo() Guest         { return f.guest }
func (f *Flow) Guests() int              { return f.guests }

// SetDates prices the stay and moves on to guest details. Dates can be
// changed again until payment is collected.
func (f *Flow) SetDates(r pricing.DateRange, guests int) (pricing.Breakdown, error) {
	if f.state == CollectingPayment || f.state == Confirmed {
		return pricing.Breakdown{}, ErrInvalidTransition
	}
	if guests < 1 || guests > f.listing.Guests {
		return pricing.Breakdown{}, &ValidationError{Field: "guests",
			Reason: fmt.Sprintf("must be between 1 and %d", f.listing.Guests)}
	}
	b, err := pricing.Price(f.listing.Price, r)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	f.dates, f.guests, f.quote = r, guests, b
	f.state = CollectingGuestInfo
	return b, nil
}

func (f *Flow) SetGuest(g Guest) error {
	if f.state != CollectingGuestInfo {
		return ErrInvalidTransition
	}
	g.FirstName = strings.TrimSpace(g.FirstName)
	g.LastName = strings.TrimSpace(g.LastName)
	g.Email = strings.TrimSpace(g.Email)
	g.Phone = strings.TrimSpace(g.Phone)
	switch {
	case g.FirstName == "":
		return &ValidationError{Field: "first_name", Reason: "required"}
	case g.LastName == "":
		return &ValidationError{Field: "last_name", Reason: "required"}
	case g.Email == "":
		return &ValidationError{Field: "email", Reason: "required"}
	case g.Phone == "":
		return &ValidationError{Field: "phone", Reason: "required"}
	}
	f.guest = g
	f.state = CollectingPayment
	return nil
}

// Pay charges the quoted total. The flow is confirmed only if the gateway
// accepts the charge; on failure it stays in CollectingPayment.
func (f *Flow) Pay(ctx context.Context, gw payment.Gateway, inst payment.Instrument) (payment.Receipt, error) {
	if f.state != CollectingPayment {
		return payment.Receipt{}, ErrInvalidTransition
	}
	r, err := gw.Charge(ctx, f.quote.Total, inst)
	if err != nil {
		return payment.Receipt{}, err
	}
	f.receipt = r
	f.state = Confirmed
	return r, nil
}
