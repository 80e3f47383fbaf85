package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, full_name, role, password_hash, active, created_at, updated_at FROM users WHERE id = $1`
	var user models.User
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertByEmail inserts the user or refreshes the name of the existing row.
// The password of an existing user is never overwritten.
func (r *UserRepository) UpsertByEmail(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	const query = `INSERT INTO users (id, email, full_name, role, password_hash, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
        ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name, updated_at = EXCLUDED.updated_at
        RETURNING id`
	var id string
	if err := sqlx.GetContext(ctx, database.Conn(ctx, r.db), &id, query,
		user.ID, user.Email, user.FullName, user.Role, user.PasswordHash, now); err != nil {
		return wrapWrite("upsert user", err)
	}
	user.ID = id
	user.Active = true
	user.UpdatedAt = now
	return nil
}
