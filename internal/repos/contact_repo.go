package repos

import (
	"context"

	"staybook/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ContactRepo struct{ db *sqlx.DB }

func NewContactRepo(db *sqlx.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = now()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO contact_messages(id, name, email, subject, message, created_at)
		VALUES(:id,:name,:email,:subject,:message,:created_at)`, m)
	return m, err
}

func (r *ContactRepo) List(ctx context.Context) ([]domain.ContactMessage, error) {
	out := []domain.ContactMessage{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, name, email, subject, message, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id`)
	return out, err
}
