package postgres

import (
	"context"
	"scene-service/internal/domain/user"
	apperrors "scene-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, username, email, first_name, last_name, is_active, is_admin, scopes, created_at, updated_at"

// UpsertByUsername creates the row on first resolution and refreshes the
// hub-derived fields on every subsequent one.
func (r *UserRepository) UpsertByUsername(ctx context.Context, input user.UpsertUserInput) (*user.User, error) {
	query := `
		INSERT INTO users (username, email, first_name, last_name, is_admin, scopes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO UPDATE SET
			email      = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			is_admin   = EXCLUDED.is_admin,
			scopes     = EXCLUDED.scopes,
			updated_at = now()
		RETURNING ` + userColumns

	u := &user.User{}
	err := r.db.Pool.QueryRow(ctx, query,
		input.Username, input.Email, input.FirstName, input.LastName, input.IsAdmin, input.Scopes,
	).Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.IsAdmin, &u.Scopes, &u.CreatedAt, &u.UpdatedAt,
	)

	if err != nil {
		return nil, errFailedUpsertUser(err)
	}

	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u := &user.User{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.IsAdmin, &u.Scopes, &u.CreatedAt, &u.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedGetUser(err)
	}

	return u, nil
}
