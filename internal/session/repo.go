package session

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepository persists sessions in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert writes a session row.
func (r *PostgresRepository) Insert(ctx context.Context, s Session) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (faculty_id, session_name, qr_payload, session_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, s.FacultyID, s.Name, s.QRPayload, s.Token, s.CreatedAt, s.ExpiresAt).Scan(&id)
	return id, err
}

// GetByToken returns the session for a token, nil when absent.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx, `
		SELECT id, faculty_id, session_name, qr_payload, session_token, created_at, expires_at
		FROM sessions WHERE session_token = $1
	`, token).Scan(&s.ID, &s.FacultyID, &s.Name, &s.QRPayload, &s.Token, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByFaculty returns recent sessions with live attendance counts, newest first.
func (r *PostgresRepository) ListByFaculty(ctx context.Context, facultyID int64, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.session_name, s.created_at, COUNT(a.id) AS attendance_count
		FROM sessions s
		LEFT JOIN attendance a ON s.id = a.session_id
		WHERE s.faculty_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC
		LIMIT $2
	`, facultyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.CreatedAt, &sm.AttendanceCount); err != nil {
			return nil, err
		}
		res = append(res, sm)
	}
	return res, rows.Err()
}
