package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"qrattend/internal/apperr"
)

// Postgres unique_violation.
const pgUniqueViolation = "23505"

// PostgresRepository persists attendance records in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Exists reports whether the student already marked this session.
func (r *PostgresRepository) Exists(ctx context.Context, studentID, sessionID int64) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM attendance WHERE student_id = $1 AND session_id = $2
	`, studentID, sessionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert writes a record. A concurrent duplicate loses to the uniqueness
// constraint and comes back as apperr.ErrDuplicate.
func (r *PostgresRepository) Insert(ctx context.Context, rec Record) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (student_id, session_id, marked_at, ip_address, photo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, rec.StudentID, rec.SessionID, rec.MarkedAt, nullString(rec.IPAddress), rec.Photo).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, fmt.Errorf("attendance already marked: %w", apperr.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// ListBySession returns records joined with their students, newest first.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID int64) ([]RecordWithStudent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.student_id, a.session_id, a.marked_at, a.ip_address, a.photo, u.username, u.email
		FROM attendance a
		JOIN users u ON a.student_id = u.id
		WHERE a.session_id = $1
		ORDER BY a.marked_at DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []RecordWithStudent
	for rows.Next() {
		var (
			rec RecordWithStudent
			ip  sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.SessionID, &rec.MarkedAt, &ip, &rec.Photo, &rec.Username, &rec.Email); err != nil {
			return nil, err
		}
		rec.IPAddress = ip.String
		res = append(res, rec)
	}
	return res, rows.Err()
}

// StudentUsername returns the student's username, "" when absent.
func (r *PostgresRepository) StudentUsername(ctx context.Context, studentID int64) (string, error) {
	var username string
	err := r.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = $1`, studentID).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
