// Package payment defines the charge capability used at checkout.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Instrument is a card as entered on the booking form.
type Instrument struct {
	CardNumber string `json:"number"`
	CardName   string `json:"name"`
	Expiry     string `json:"expiry"`
	CVC        string `json:"cvc"`
}

// Last4 returns the last four digits of the card number.
func (i Instrument) Last4() string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, i.CardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

type Receipt struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Last4     string    `json:"last4"`
	ChargedAt time.Time `json:"charged_at"`
}

// PaymentError is a declined or rejected charge.
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string { return "payment declined: " + e.Reason }

// IsPaymentError reports whether err is or wraps a *PaymentError.
func IsPaymentError(err error) bool {
	var pe *PaymentError
	return errors.As(err, &pe)
}

//go:generate mockgen -source=gateway.go -destination=mock_gateway.go -package=payment

// Gateway charges an amount against an instrument.
type Gateway interface {
	Charge(ctx context.Context, amount float64, inst Instrument) (Receipt, error)
}

// Simulated accepts any charge whose card fields are all filled in, after
// Delay. It stands in for a real processor.
type Simulated struct {
	Delay time.Duration
	Now   func() time.Time
}

func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{Delay: delay, Now: time.Now}
}

func (s *Simulated) Charge(ctx context.Context, amount float64, inst Instrument) (Receipt, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-t.C:
		}
	}
	if amount <= 0 {
		return Receipt{}, &PaymentError{Reason: fmt.Sprintf("invalid amount %.2f", amount)}
	}
	if strings.TrimSpace(inst.CardNumber) == "" || strings.TrimSpace(inst.CardName) == "" ||
		strings.TrimSpace(inst.Expiry) == "" || strings.TrimSpace(inst.CVC) == "" {
		return Receipt{}, &PaymentError{Reason: "please fill in all payment details"}
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return Receipt{
		ID:        "pay_" + uuid.NewString(),
		Amount:    amount,
		Last4:     inst.Last4(),
		ChargedAt: now().UTC(),
	}, nil
}
