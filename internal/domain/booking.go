package domain

const (
	BookingConfirmed = "confirmed"
	BookingCanceled  = "canceled"
)

// Booking is a confirmed reservation. Card data is never stored; only the
// gateway receipt reference and the card's last four digits.
type Booking struct {
	ID          string  `db:"id" json:"id"`
	ListingID   string  `db:"listing_id" json:"listing_id"`
	ListingName string  `db:"listing_title" json:"listing_title"`
	HostID      string  `db:"host_id" json:"host_id"`
	GuestID     string  `db:"guest_id" json:"guest_id,omitempty"`
	FirstName   string  `db:"first_name" json:"first_name"`
	LastName    string  `db:"last_name" json:"last_name"`
	Email       string  `db:"email" json:"email"`
	Phone       string  `db:"phone" json:"phone"`
	CheckIn     string  `db:"check_in" json:"check_in"`
	CheckOut    string  `db:"check_out" json:"check_out"`
	Guests      int     `db:"guests" json:"guests"`
	Nights      int     `db:"nights" json:"nights"`
	NightlyRate float64 `db:"nightly_rate" json:"nightly_rate"`
	Subtotal    float64 `db:"subtotal" json:"subtotal"`
	CleaningFee float64 `db:"cleaning_fee" json:"cleaning_fee"`
	ServiceFee  float64 `db:"service_fee" json:"service_fee"`
	Total       float64 `db:"total" json:"total"`
	Status      string  `db:"status" json:"status"`
	PaymentRef  string  `db:"payment_ref" json:"payment_ref"`
	CardLast4   string  `db:"card_last4" json:"card_last4"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	Users             int            `json:"users"`
	UsersByRole       map[string]int `json:"users_by_role"`
	Listings          int            `json:"listings"`
	ListingsByStatus  map[string]int `json:"listings_by_status"`
	Bookings          int            `json:"bookings"`
	GrossBookingValue float64        `json:"gross_booking_value"`
}
