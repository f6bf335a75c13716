package domain

const (
	RoleUser  = "user"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

type User struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	AvatarURL string `db:"avatar_url" json:"avatar_url,omitempty"`
	Hash      string `db:"password_hash" json:"-"`
	Role      string `db:"role" json:"role"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// UserSummary is the admin view of a user.
type UserSummary struct {
	User
	PropertiesCount int `db:"properties_count" json:"properties_count"`
}

func ValidRole(r string) bool {
	return r == RoleUser || r == RoleHost || r == RoleAdmin
}
