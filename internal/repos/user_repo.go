package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"staybook/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, first_name, last_name, avatar_url, password_hash, role, created_at, updated_at`

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE `+where), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `LOWER(email) = LOWER(?)`, email)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `id = ?`, id)
}

// Create inserts u with a fresh ID. Emails are unique ignoring case.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	if _, err := r.ByEmail(ctx, u.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	u.ID = uuid.NewString()
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO users(`+userCols+`)
		VALUES(:id,:email,:first_name,:last_name,:avatar_url,:password_hash,:role,:created_at,:updated_at)`, u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the non-nil name and avatar fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, first, last, avatar *string) (*domain.User, error) {
	u, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if first != nil {
		u.FirstName = *first
	}
	if last != nil {
		u.LastName = *last
	}
	if avatar != nil {
		u.AvatarURL = *avatar
	}
	u.UpdatedAt = now()
	_, err = r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE users SET first_name = ?, last_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`),
		u.FirstName, u.LastName, u.AvatarURL, u.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id, role string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`), role, now(), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *UserRepo) SetPassword(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`), hash, now(), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// ListWithCounts returns every user with the number of listings they host.
func (r *UserRepo) ListWithCounts(ctx context.Context) ([]domain.UserSummary, error) {
	out := []domain.UserSummary{}
	err := r.DB.SelectContext(ctx, &out, `
		SELECT u.id, u.email, u.first_name, u.last_name, u.avatar_url, u.password_hash, u.role,
		       u.created_at, u.updated_at, COUNT(l.id) AS properties_count
		FROM users u
		LEFT JOIN listings l ON l.host_id = u.id
		GROUP BY u.id, u.email, u.first_name, u.last_name, u.avatar_url, u.password_hash, u.role, u.created_at, u.updated_at
		ORDER BY u.created_at DESC, u.email`)
	return out, err
}

func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role string `db:"role"`
		N    int    `db:"n"`
	}
	if err := r.DB.SelectContext(ctx, &rows, `SELECT role, COUNT(*) AS n FROM users GROUP BY role`); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Role] = row.N
	}
	return out, nil
}

// BindSession attaches sid to userID until expires.
func (r *UserRepo) BindSession(ctx context.Context, sid, userID string, expires time.Time) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO sessions(id, user_id, created_at, last_seen, expires_at)
		VALUES(?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen, expires_at = excluded.expires_at`),
		sid, userID, ts, ts, expires.UTC().Format(time.RFC3339))
	return err
}

// SessionUser resolves a live session to its user.
func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`
		SELECT u.id, u.email, u.first_name, u.last_name, u.avatar_url, u.password_hash, u.role, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ? AND s.expires_at > ?`), sid, now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE sessions SET user_id = NULL, last_seen = ? WHERE id = ?`), now(), sid)
	return err
}

// CreateReset stores a single-use password reset token.
func (r *UserRepo) CreateReset(ctx context.Context, token, userID string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`INSERT INTO password_resets(token, user_id, expires_at) VALUES(?,?,?)`),
		token, userID, expires.UTC().Format(time.RFC3339))
	return err
}

// ConsumeReset marks token used and returns its user. Expired or used tokens are ErrNotFound.
func (r *UserRepo) ConsumeReset(ctx context.Context, token string) (string, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var userID string
	err = tx.GetContext(ctx, &userID, tx.Rebind(`
		SELECT user_id FROM password_resets WHERE token = ? AND used = 0 AND expires_at > ?`), token, now())
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE password_resets SET used = 1 WHERE token = ?`), token); err != nil {
		return "", err
	}
	return userID, tx.Commit()
}
