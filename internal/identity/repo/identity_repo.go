package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/identity/entity"
)

// IdentityRepo provides data access for the identities table using sqlx.
// Email uniqueness is enforced by the CITEXT UNIQUE column, so a concurrent
// duplicate insert fails with a unique violation instead of racing.
type IdentityRepo struct {
	db *sqlx.DB
}

func NewIdentityRepo(db *sqlx.DB) *IdentityRepo { return &IdentityRepo{db: db} }

// Create inserts a new identity row.
func (r *IdentityRepo) Create(ctx context.Context, i *entity.Identity) error {
	const q = `INSERT INTO identities (id, name, email, password_hash, created_at)
		VALUES (:id, :name, :email, :password_hash, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, i)
	return err
}

// GetByEmail returns an identity matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	const q = `SELECT id, name, email, password_hash, created_at FROM identities WHERE email=$1`
	var row entity.Identity
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}
	return &row, nil
}
