// Package pricing computes the price breakdown of a stay.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// CleaningFee is charged once per booking.
	CleaningFee = 75.0
	// ServiceFeePercent is the platform commission on the subtotal.
	ServiceFeePercent = 12

	DateLayout = "2006-01-02"

	day = 24 * time.Hour
)

// ErrInvalidRate is returned for a nightly rate that is not a positive number.
var ErrInvalidRate = errors.New("nightly rate must be a positive number")

type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// InvalidRangeError is returned when check-out is not strictly after check-in.
type InvalidRangeError struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: check-out %s must be after check-in %s",
		e.CheckOut.Format(DateLayout), e.CheckIn.Format(DateLayout))
}

type Breakdown struct {
	Nights      int     `json:"nights"`
	NightlyRate float64 `json:"nightly_rate"`
	Subtotal    float64 `json:"subtotal"`
	CleaningFee float64 `json:"cleaning_fee"`
	ServiceFee  float64 `json:"service_fee"`
	Total       float64 `json:"total"`
}

// ParseRange parses two YYYY-MM-DD dates. It does not check their order.
func ParseRange(checkIn, checkOut string) (DateRange, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return DateRange{}, fmt.Errorf("check_in: %w", err)
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return DateRange{}, fmt.Errorf("check_out: %w", err)
	}
	return DateRange{CheckIn: in, CheckOut: out}, nil
}

// Nights returns the number of nights in r, or an *InvalidRangeError.
// Both ends are reduced to their calendar day first, so the wall-clock time
// and daylight-saving offsets of the inputs do not affect the count.
func (r DateRange) Nights() (int, error) {
	in, out := calendarDay(r.CheckIn), calendarDay(r.CheckOut)
	if !out.After(in) {
		return 0, &InvalidRangeError{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
	}
	diff := out.Sub(in)
	return int((diff + day - 1) / day), nil
}

// Price computes the breakdown of a stay at nightlyRate over r.
func Price(nightlyRate float64, r DateRange) (Breakdown, error) {
	if !(nightlyRate > 0) || math.IsInf(nightlyRate, 1) {
		return Breakdown{}, ErrInvalidRate
	}
	nights, err := r.Nights()
	if err != nil {
		return Breakdown{}, err
	}
	subtotalCents := toCents(nightlyRate) * int64(nights)
	// round(subtotal * 0.12) to whole units, half up
	serviceUnits := (subtotalCents*ServiceFeePercent + 5000) / 10000

	b := Breakdown{
		Nights:      nights,
		NightlyRate: nightlyRate,
		Subtotal:    fromCents(subtotalCents),
		CleaningFee: CleaningFee,
		ServiceFee:  float64(serviceUnits),
	}
	b.Total = fromCents(subtotalCents + toCents(CleaningFee) + serviceUnits*100)
	return b, nil
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toCents(v float64) int64 { return int64(math.Round(v * 100)) }

func fromCents(c int64) float64 { return float64(c) / 100 }
