package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roadready/roadready-backend/internal/model"
)

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a user for an external identity. Returns pgx.ErrNoRows if
// a row for that identity already exists, so callers can distinguish a
// first sign-in from a returning one.
func (r *UserRepository) Create(ctx context.Context, externalID string, role model.Role) (*model.User, error) {
	u := &model.User{ExternalID: externalID}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (external_id, role)
		 VALUES ($1, $2)
		 ON CONFLICT (external_id) DO NOTHING
		 RETURNING id, role, created_at`,
		externalID, role,
	).Scan(&u.ID, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByExternalID retrieves a user by external identity reference.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, external_id, role, created_at
		 FROM users
		 WHERE external_id = $1`, externalID,
	).Scan(&u.ID, &u.ExternalID, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
