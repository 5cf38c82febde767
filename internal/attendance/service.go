package attendance

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"qrattend/internal/apperr"
	"qrattend/internal/session"
)

const markedAtDisplayFormat = "02-01-2006 15:04:05"

// Record is a persisted attendance mark. Immutable once created.
type Record struct {
	ID        int64
	StudentID int64
	SessionID int64
	MarkedAt  time.Time
	IPAddress string
	Photo     []byte
}

// RecordView is a record joined with its student, shaped for transport.
type RecordView struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	MarkedAt  string  `json:"marked_at"`
	IPAddress string  `json:"ip_address"`
	Photo     *string `json:"photo"`
}

// MarkResult confirms a successful mark.
type MarkResult struct {
	SessionID   int64
	RecordID    int64
	SessionName string
	StudentName string
	MarkedAt    time.Time
}

// Repository persists attendance records.
type Repository interface {
	// Exists reports whether the student already marked this session.
	Exists(ctx context.Context, studentID, sessionID int64) (bool, error)
	// Insert writes a record, returning apperr.ErrDuplicate when the
	// (student_id, session_id) uniqueness constraint fires.
	Insert(ctx context.Context, rec Record) (int64, error)
	// ListBySession returns records joined with their students, newest first.
	ListBySession(ctx context.Context, sessionID int64) ([]RecordWithStudent, error)
	// StudentUsername returns the student's username, "" when absent.
	StudentUsername(ctx context.Context, studentID int64) (string, error)
}

// RecordWithStudent is a record joined with the user columns of its student.
type RecordWithStudent struct {
	Record
	Username string
	Email    string
}

// SessionResolver resolves a scanned token to its session. Satisfied by
// session.Service.
type SessionResolver interface {
	ResolveToken(ctx context.Context, token string) (*session.Session, error)
}

// Service validates scans and records presence.
type Service struct {
	repo     Repository
	sessions SessionResolver
	window   time.Duration
	now      func() time.Time
}

// NewService creates a service. window is the freshness bound applied to the
// payload's embedded timestamp, independent of the session row's expiry.
func NewService(repo Repository, sessions SessionResolver, window time.Duration) *Service {
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &Service{repo: repo, sessions: sessions, window: window, now: time.Now}
}

// Mark validates a scanned payload and records presence exactly once per
// student and session. The shape and freshness checks run before any store
// access; duplicate losers of a concurrent race are caught by the storage
// uniqueness constraint rather than application locking.
func (s *Service) Mark(ctx context.Context, qrData string, studentID int64, photo, ipAddress string) (MarkResult, error) {
	if qrData == "" || studentID <= 0 {
		return MarkResult{}, fmt.Errorf("qr_data and student_id required: %w", apperr.ErrValidation)
	}

	payload, err := session.ParsePayload(qrData)
	if err != nil {
		return MarkResult{}, err
	}

	// Freshness of the code itself, from its embedded timestamp.
	if s.now().Sub(payload.CreatedAt) > s.window {
		return MarkResult{}, fmt.Errorf("QR code expired: %w", apperr.ErrExpired)
	}

	sess, err := s.sessions.ResolveToken(ctx, payload.Token)
	if err != nil {
		return MarkResult{}, err
	}

	// The persisted row is the authoritative expiry.
	if !s.now().Before(sess.ExpiresAt) {
		return MarkResult{}, fmt.Errorf("session expired: %w", apperr.ErrExpired)
	}

	marked, err := s.repo.Exists(ctx, studentID, sess.ID)
	if err != nil {
		return MarkResult{}, err
	}
	if marked {
		return MarkResult{}, fmt.Errorf("attendance already marked: %w", apperr.ErrDuplicate)
	}

	photoBytes, ok := decodePhoto(photo)
	if photo != "" && !ok {
		log.Printf("mark: photo decode failed for student %d, proceeding without photo", studentID)
	}

	rec := Record{
		StudentID: studentID,
		SessionID: sess.ID,
		MarkedAt:  s.now().UTC(),
		IPAddress: ipAddress,
		Photo:     photoBytes,
	}
	id, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return MarkResult{}, err
	}

	studentName, err := s.repo.StudentUsername(ctx, studentID)
	if err != nil || studentName == "" {
		studentName = "Student"
	}

	return MarkResult{
		SessionID:   sess.ID,
		RecordID:    id,
		SessionName: sess.Name,
		StudentName: studentName,
		MarkedAt:    rec.MarkedAt,
	}, nil
}

// List returns all records for a session, newest first, photos re-encoded for
// transport. A session with no records yields an empty slice, not an error.
func (s *Service) List(ctx context.Context, sessionID int64) ([]RecordView, error) {
	if sessionID <= 0 {
		return nil, fmt.Errorf("session_id required: %w", apperr.ErrValidation)
	}

	records, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	views := make([]RecordView, 0, len(records))
	for _, rec := range records {
		view := RecordView{
			ID:        rec.ID,
			Username:  rec.Username,
			Email:     rec.Email,
			MarkedAt:  rec.MarkedAt.Format(markedAtDisplayFormat),
			IPAddress: rec.IPAddress,
		}
		if view.IPAddress == "" {
			view.IPAddress = "N/A"
		}
		if len(rec.Photo) > 0 {
			uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(rec.Photo)
			view.Photo = &uri
		}
		views = append(views, view)
	}
	return views, nil
}

// decodePhoto strips an optional data-URI header and base64-decodes the rest.
// The caller decides what a failed decode means; Mark proceeds photo-less.
func decodePhoto(photo string) ([]byte, bool) {
	if photo == "" {
		return nil, false
	}
	if idx := strings.Index(photo, ","); idx >= 0 {
		photo = photo[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(photo)
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}
