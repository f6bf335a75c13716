package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"staybook/internal/domain"
	"staybook/internal/search"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ListingRepo struct{ db *sqlx.DB }

func NewListingRepo(db *sqlx.DB) *ListingRepo { return &ListingRepo{db: db} }

// ListingPatch carries the fields a host may change. Nil fields are left as they are.
type ListingPatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Price       *float64 `json:"price"`
	Type        *string  `json:"type"`
	Beds        *int     `json:"beds"`
	Baths       *float64 `json:"baths"`
	Guests      *int     `json:"guests"`
}

const listingCols = `id, host_id, title, description, location, price, type, beds, baths, guests, status, created_at, updated_at`

func (r *ListingRepo) ListActive(ctx context.Context) ([]domain.Listing, error) {
	return r.list(ctx, `WHERE status = ?`, domain.StatusActive)
}

func (r *ListingRepo) ListAll(ctx context.Context) ([]domain.Listing, error) {
	return r.list(ctx, ``)
}

func (r *ListingRepo) ListByHost(ctx context.Context, hostID string) ([]domain.Listing, error) {
	return r.list(ctx, `WHERE host_id = ?`, hostID)
}

// Search narrows on type, price and guests in SQL, then applies search.Filter.
// Location and amenities are left to the filter: SQL case folding is ASCII-only
// on sqlite and collation-bound on Postgres.
func (r *ListingRepo) Search(ctx context.Context, c search.Criteria) ([]domain.Listing, error) {
	where := `WHERE status = ?`
	args := []any{domain.StatusActive}
	if len(c.Types) > 0 {
		q, a, err := sqlx.In(` AND type IN (?)`, c.Types)
		if err != nil {
			return nil, err
		}
		where += q
		args = append(args, a...)
	}
	if c.PriceMin != nil {
		where += ` AND price >= ?`
		args = append(args, *c.PriceMin)
	}
	if c.PriceMax != nil {
		where += ` AND price <= ?`
		args = append(args, *c.PriceMax)
	}
	if c.Guests != nil {
		where += ` AND guests >= ?`
		args = append(args, *c.Guests)
	}
	out, err := r.list(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	return search.Filter(out, c), nil
}

func (r *ListingRepo) Get(ctx context.Context, id string) (domain.Listing, error) {
	var l domain.Listing
	err := r.db.GetContext(ctx, &l, r.db.Rebind(`SELECT `+listingCols+` FROM listings WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	if err != nil {
		return l, err
	}
	one := []domain.Listing{l}
	if err := r.loadDetails(ctx, one); err != nil {
		return l, err
	}
	return one[0], nil
}

// Create stores a new listing. Status defaults to pending.
func (r *ListingRepo) Create(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = domain.StatusPending
	}
	ts := now()
	l.CreatedAt, l.UpdatedAt = ts, ts

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return l, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO listings(`+listingCols+`)
		VALUES(:id,:host_id,:title,:description,:location,:price,:type,:beds,:baths,:guests,:status,:created_at,:updated_at)`, l); err != nil {
		return l, err
	}
	if err := insertImages(tx, l.ID, l.Images); err != nil {
		return l, err
	}
	if err := insertAmenities(tx, l.ID, l.Amenities); err != nil {
		return l, err
	}
	if err := tx.Commit(); err != nil {
		return l, err
	}
	return r.Get(ctx, l.ID)
}

// Update applies p and, when non-nil, replaces images and amenities.
// Listings with bookings are locked.
func (r *ListingRepo) Update(ctx context.Context, id string, p ListingPatch, images, amenities []string) (domain.Listing, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return domain.Listing{}, err
	}
	booked, err := r.HasBookings(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if booked {
		return domain.Listing{}, ErrListingLocked
	}

	sets := []string{"updated_at = ?"}
	args := []any{now()}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Type != nil {
		add("type", *p.Type)
	}
	if p.Beds != nil {
		add("beds", *p.Beds)
	}
	if p.Baths != nil {
		add("baths", *p.Baths)
	}
	if p.Guests != nil {
		add("guests", *p.Guests)
	}
	args = append(args, id)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Listing{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE listings SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...); err != nil {
		return domain.Listing{}, err
	}
	if images != nil {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM listing_images WHERE listing_id = ?`), id); err != nil {
			return domain.Listing{}, err
		}
		if err := insertImages(tx, id, images); err != nil {
			return domain.Listing{}, err
		}
	}
	if amenities != nil {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM listing_amenities WHERE listing_id = ?`), id); err != nil {
			return domain.Listing{}, err
		}
		if err := insertAmenities(tx, id, amenities); err != nil {
			return domain.Listing{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Listing{}, err
	}
	return r.Get(ctx, id)
}

// UpdateStatus is the moderation path; it ignores the booking lock.
func (r *ListingRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE listings SET status = ?, updated_at = ? WHERE id = ?`), status, now(), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	booked, err := r.HasBookings(ctx, id)
	if err != nil {
		return err
	}
	if booked {
		return ErrListingLocked
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM listings WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *ListingRepo) HasBookings(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM bookings WHERE listing_id = ?`), id)
	return n > 0, err
}

// CountByStatus returns listing counts keyed by status.
func (r *ListingRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS n FROM listings GROUP BY status`); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *ListingRepo) list(ctx context.Context, where string, args ...any) ([]domain.Listing, error) {
	out := []domain.Listing{}
	q := `SELECT ` + listingCols + ` FROM listings ` + where + ` ORDER BY created_at DESC, id`
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadDetails fills Images and Amenities with one query per table.
func (r *ListingRepo) loadDetails(ctx context.Context, ls []domain.Listing) error {
	if len(ls) == 0 {
		return nil
	}
	ids := make([]string, len(ls))
	idx := make(map[string]int, len(ls))
	for i := range ls {
		ids[i] = ls[i].ID
		idx[ls[i].ID] = i
		ls[i].Images = []string{}
		ls[i].Amenities = []string{}
	}

	type row struct {
		ListingID string `db:"listing_id"`
		Value     string `db:"value"`
	}
	load := func(q string) ([]row, error) {
		query, args, err := sqlx.In(q, ids)
		if err != nil {
			return nil, err
		}
		var rows []row
		err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
		return rows, err
	}

	imgs, err := load(`SELECT listing_id, url AS value FROM listing_images WHERE listing_id IN (?) ORDER BY listing_id, position`)
	if err != nil {
		return err
	}
	for _, im := range imgs {
		i := idx[im.ListingID]
		ls[i].Images = append(ls[i].Images, im.Value)
	}
	ams, err := load(`SELECT listing_id, name AS value FROM listing_amenities WHERE listing_id IN (?) ORDER BY listing_id, position`)
	if err != nil {
		return err
	}
	for _, a := range ams {
		i := idx[a.ListingID]
		ls[i].Amenities = append(ls[i].Amenities, a.Value)
	}
	return nil
}

func insertImages(tx *sqlx.Tx, listingID string, urls []string) error {
	for i, u := range urls {
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO listing_images(listing_id, position, url) VALUES(?,?,?)`), listingID, i, u); err != nil {
			return err
		}
	}
	return nil
}

// insertAmenities skips duplicate tags, keeping the first position.
func insertAmenities(tx *sqlx.Tx, listingID string, names []string) error {
	seen := map[string]bool{}
	pos := 0
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO listing_amenities(listing_id, position, name) VALUES(?,?,?)`), listingID, pos, n); err != nil {
			return err
		}
		pos++
	}
	return nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
