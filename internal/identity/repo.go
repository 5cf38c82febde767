package identity

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Exists reports whether the username or email is already registered.
func (r *PostgresRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE username = $1 OR email = $2
	`, username, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a user row.
func (r *PostgresRepository) Create(ctx context.Context, username, email, passwordHash, role string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, username, email, passwordHash, role).Scan(&id)
	return id, err
}

// GetByUsername returns the user and stored password hash, nil when absent.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, string, error) {
	var (
		u    User
		hash string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Email, &hash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}
