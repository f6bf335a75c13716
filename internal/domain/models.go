package domain

// Listing statuses.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Listing struct {
	ID          string   `db:"id" json:"id"`
	HostID      string   `db:"host_id" json:"host_id"`
	Title       string   `db:"title" json:"title"`
	Description string   `db:"description" json:"description"`
	Location    string   `db:"location" json:"location"`
	Price       float64  `db:"price" json:"price"`
	Type        string   `db:"type" json:"type"`
	Beds        int      `db:"beds" json:"beds"`
	Baths       float64  `db:"baths" json:"baths"`
	Guests      int      `db:"guests" json:"guests"`
	Status      string   `db:"status" json:"status"`
	Amenities   []string `db:"-" json:"amenities"`
	Images      []string `db:"-" json:"images"`
	CreatedAt   string   `db:"created_at" json:"created_at"`
	UpdatedAt   string   `db:"updated_at" json:"updated_at"`
}

// HasAmenity reports whether the listing carries the exact amenity tag.
func (l Listing) HasAmenity(name string) bool {
	for _, a := range l.Amenities {
		if a == name {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a listing lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive:
		return true
	}
	return false
}

type ContactMessage struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Subject   string `db:"subject" json:"subject"`
	Message   string `db:"message" json:"message"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
