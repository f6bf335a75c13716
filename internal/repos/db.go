package repos

import (
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers "postgres"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrListingLocked = errors.New("listing has bookings and can no longer be changed")
	ErrEmailTaken    = errors.New("email already registered")
)

// OpenDB opens an sqlite database and seeds the demo catalog.
func OpenDB(dsn string) (*sqlx.DB, error) {
	return Open("sqlite", dsn, true)
}

// Open connects with one of the supported drivers: sqlite, pgx, postgres.
// Queries are written with '?' placeholders and rebound per driver.
func Open(driver, dsn string, seed bool) (*sqlx.DB, error) {
	switch driver {
	case "sqlite", "pgx", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection keeps ":memory:" databases and PRAGMAs consistent
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if seed {
		if err := seedIfEmpty(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  avatar_url TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('user','host','admin')),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  last_seen TEXT,
  expires_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,

	`CREATE TABLE IF NOT EXISTS password_resets(
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  expires_at TEXT NOT NULL,
  used INTEGER NOT NULL DEFAULT 0
)`,

	`CREATE TABLE IF NOT EXISTS listings(
  id TEXT PRIMARY KEY,
  host_id TEXT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL,
  price DOUBLE PRECISION NOT NULL CHECK (price > 0),
  type TEXT NOT NULL,
  beds INTEGER NOT NULL DEFAULT 0,
  baths DOUBLE PRECISION NOT NULL DEFAULT 0,
  guests INTEGER NOT NULL DEFAULT 1,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','active','inactive')),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_host ON listings(host_id)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_location ON listings(LOWER(location))`,

	`CREATE TABLE IF NOT EXISTS listing_images(
  listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  url TEXT NOT NULL,
  PRIMARY KEY (listing_id, position)
)`,
	`CREATE TABLE IF NOT EXISTS listing_amenities(
  listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  PRIMARY KEY (listing_id, name)
)`,

	`CREATE TABLE IF NOT EXISTS bookings(
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL REFERENCES listings(id),
  guest_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  check_in TEXT NOT NULL,
  check_out TEXT NOT NULL,
  guests INTEGER NOT NULL,
  nights INTEGER NOT NULL CHECK (nights >= 1),
  nightly_rate DOUBLE PRECISION NOT NULL,
  subtotal DOUBLE PRECISION NOT NULL,
  cleaning_fee DOUBLE PRECISION NOT NULL,
  service_fee DOUBLE PRECISION NOT NULL,
  total DOUBLE PRECISION NOT NULL,
  status TEXT NOT NULL DEFAULT 'confirmed',
  payment_ref TEXT NOT NULL,
  card_last4 TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_listing ON bookings(listing_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_guest ON bookings(guest_id)`,

	`CREATE TABLE IF NOT EXISTS contact_messages(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  subject TEXT NOT NULL,
  message TEXT NOT NULL,
  created_at TEXT NOT NULL
)`,
}

func ensureSchema(db *sqlx.DB) error {
	if db.DriverName() == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return err
		}
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

type seedListing struct {
	id, title, description, location string
	price                            float64
	typ                              string
	beds                             int
	baths                            float64
	guests                           int
	image                            string
	amenities                        []string
}

// Demo catalog shown on the search page.
var demoListings = []seedListing{
	{"l-malibu-villa", "Luxury Beachfront Villa", "Wake up to the Pacific in a four-bedroom villa steps from the sand.", "Malibu, California", 350, "Villa", 4, 3, 8,
		"https://images.unsplash.com/photo-1566073771259-6a8506099945", []string{"Pool", "Wifi", "Kitchen", "Air conditioning", "Beach access"}},
	{"l-nyc-apartment", "Modern Downtown Apartment", "Bright apartment in the middle of Manhattan.", "New York City, NY", 180, "Apartment", 2, 1, 4,
		"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688", []string{"Wifi", "Kitchen", "Air conditioning", "Gym", "Doorman"}},
	{"l-aspen-cabin", "Cozy Mountain Cabin", "Log cabin with a fireplace and views of the Rockies.", "Aspen, Colorado", 220, "Cabin", 3, 2, 6,
		"https://images.unsplash.com/photo-1518732714860-b62714ce0c59", []string{"Fireplace", "Wifi", "Kitchen", "Heating", "Mountain view"}},
	{"l-capecod-cottage", "Seaside Cottage", "Shingled cottage a short walk from the beach.", "Cape Cod, Massachusetts", 195, "Cottage", 2, 1, 4,
		"https://images.unsplash.com/photo-1499793983690-e29da59ef1c2", []string{"Beach access", "Wifi", "Kitchen", "Patio", "BBQ grill"}},
	{"l-miami-penthouse", "Luxury Penthouse with City View", "Top-floor penthouse with a rooftop pool.", "Miami, Florida", 420, "Penthouse", 3, 2, 6,
		"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267", []string{"Pool", "Wifi", "Kitchen", "Air conditioning", "City view", "Gym"}},
	{"l-boston-townhouse", "Historic Townhouse", "Restored brick townhouse on Beacon Hill.", "Boston, Massachusetts", 275, "Townhouse", 3, 2.5, 6,
		"https://images.unsplash.com/photo-1493809842364-78817add7ffb", []string{"Wifi", "Kitchen", "Heating", "Historic", "Washer/Dryer"}},
	{"l-tahoe-house", "Lakefront Retreat", "Private dock and deck on the lake.", "Lake Tahoe, California", 310, "House", 4, 3, 8,
		"https://images.unsplash.com/photo-1542718610-a1d656d1884c", []string{"Lake view", "Wifi", "Kitchen", "Fireplace", "Deck"}},
	{"l-chicago-loft", "Urban Loft", "Open-plan loft in the West Loop.", "Chicago, Illinois", 165, "Loft", 1, 1, 2,
		"https://images.unsplash.com/photo-1536376072261-38c75010e6c9", []string{"Wifi", "Kitchen", "Air conditioning", "City view", "Exposed brick"}},
}

// DemoPassword is the password of every seeded account.
const DemoPassword = "Passw0rd!"

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo users and listings")

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ts := now()

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	users := []struct{ id, email, first, last, role string }{
		{"u-admin", "admin@staybook.test", "Admin", "User", "admin"},
		{"u-sarah", "sarah@staybook.test", "Sarah", "Johnson", "host"},
		{"u-alice", "alice@staybook.test", "Alice", "Walker", "user"},
	}
	for _, u := range users {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO users(id,email,first_name,last_name,password_hash,role,created_at,updated_at)
			VALUES(?,?,?,?,?,?,?,?)`),
			u.id, u.email, u.first, u.last, string(hash), u.role, ts, ts); err != nil {
			return err
		}
	}

	// newest first matches the catalog order above
	base := time.Now().UTC()
	for i, l := range demoListings {
		created := base.Add(-time.Duration(i) * time.Minute).Format(time.RFC3339)
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO listings(id,host_id,title,description,location,price,type,beds,baths,guests,status,created_at,updated_at)
			VALUES(?,?,?,?,?,?,?,?,?,?,'active',?,?)`),
			l.id, "u-sarah", l.title, l.description, l.location, l.price, l.typ, l.beds, l.baths, l.guests, created, created); err != nil {
			return err
		}
		if err := insertImages(tx, l.id, []string{l.image}); err != nil {
			return err
		}
		if err := insertAmenities(tx, l.id, l.amenities); err != nil {
			return err
		}
	}
	return tx.Commit()
}
