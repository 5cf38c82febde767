package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"qrattend/internal/apperr"
	"qrattend/internal/store"
)

const (
	qrImageSize    = 256
	listLimit      = 20
	tokenCachePrfx = "qrattend:session:"
)

// Session is one attendance-collection window. The token is the sole
// capability resolving a scan back to this row.
type Session struct {
	ID        int64     `json:"id"`
	FacultyID int64     `json:"faculty_id"`
	Name      string    `json:"session_name"`
	QRPayload string    `json:"qr_payload"`
	Token     string    `json:"session_token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Summary is a session row annotated with its live attendance count.
type Summary struct {
	ID              int64     `json:"id"`
	Name            string    `json:"session_name"`
	CreatedAt       time.Time `json:"created_at"`
	AttendanceCount int       `json:"attendance_count"`
}

// CreateResult carries everything the faculty client needs to project the code.
type CreateResult struct {
	SessionID int64
	Name      string
	QRImage   string // data:image/png;base64,...
	QRData    string
	ExpiresAt time.Time
}

// Repository persists sessions.
type Repository interface {
	// Insert stores a session row and returns its id.
	Insert(ctx context.Context, s Session) (int64, error)
	// GetByToken returns the session for a token, nil when absent.
	GetByToken(ctx context.Context, token string) (*Session, error)
	// ListByFaculty returns the most recent sessions with attendance counts,
	// newest first.
	ListByFaculty(ctx context.Context, facultyID int64, limit int) ([]Summary, error)
}

// Service mints sessions, renders QR codes, and resolves scanned tokens.
type Service struct {
	repo  Repository
	cache *store.Redis
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a service. cache may be nil; lookups then always hit the
// store. ttl is the session validity window.
func NewService(repo Repository, cache *store.Redis, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, now: time.Now}
}

// Create mints a token, persists the session, and renders the QR image.
func (s *Service) Create(ctx context.Context, facultyID int64, name string) (CreateResult, error) {
	name = strings.TrimSpace(name)
	if facultyID <= 0 || name == "" {
		return CreateResult{}, fmt.Errorf("faculty_id and session_name required: %w", apperr.ErrValidation)
	}
	if strings.Contains(name, payloadDelim) {
		return CreateResult{}, fmt.Errorf("session_name must not contain %q: %w", payloadDelim, apperr.ErrValidation)
	}

	token, err := NewToken()
	if err != nil {
		return CreateResult{}, err
	}

	createdAt := s.now().UTC()
	payload := EncodePayload(facultyID, name, createdAt, token)
	sess := Session{
		FacultyID: facultyID,
		Name:      name,
		QRPayload: payload,
		Token:     token,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(s.ttl),
	}

	id, err := s.repo.Insert(ctx, sess)
	if err != nil {
		return CreateResult{}, err
	}
	sess.ID = id
	s.cacheSession(ctx, &sess)

	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return CreateResult{}, fmt.Errorf("qr encode: %w", err)
	}

	return CreateResult{
		SessionID: id,
		Name:      name,
		QRImage:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		QRData:    payload,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// List returns the faculty's most recent sessions, newest first.
func (s *Service) List(ctx context.Context, facultyID int64) ([]Summary, error) {
	if facultyID <= 0 {
		return nil, fmt.Errorf("faculty_id required: %w", apperr.ErrValidation)
	}
	summaries, err := s.repo.ListByFaculty(ctx, facultyID, listLimit)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	return summaries, nil
}

// ResolveToken looks a scanned token up, redis first then the store. The cache
// fails safe; a redis outage only costs the fast path.
func (s *Service) ResolveToken(ctx context.Context, token string) (*Session, error) {
	if cached := s.cache.GetBytes(ctx, tokenCachePrfx+token); cached != nil {
		var sess Session
		if err := json.Unmarshal(cached, &sess); err == nil {
			return &sess, nil
		}
		log.Printf("session cache: bad entry for token, falling through")
	}

	sess, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found: %w", apperr.ErrNotFound)
	}
	s.cacheSession(ctx, sess)
	return sess, nil
}

// cacheSession stores the row under its token, expiring with the session.
func (s *Service) cacheSession(ctx context.Context, sess *Session) {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if buf, err := json.Marshal(sess); err == nil {
		s.cache.SetBytes(ctx, tokenCachePrfx+sess.Token, buf, ttl)
	}
}
