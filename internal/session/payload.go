package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"qrattend/internal/apperr"
)

// Payload wire format: ATTEND|<faculty_id>|<session_name>|<rfc3339 ts>|<token>.
// The delimiter is unescaped, so session names must never contain it; Create
// rejects such names up front.
const (
	payloadMarker = "ATTEND"
	payloadDelim  = "|"
	payloadFields = 5
)

// Payload is the decoded content of a scanned QR code. CreatedAt is the
// encoding timestamp, used for the freshness window; the session row carries
// the authoritative expiry.
type Payload struct {
	FacultyID int64
	Name      string
	CreatedAt time.Time
	Token     string
}

// EncodePayload renders the QR wire string for a session.
func EncodePayload(facultyID int64, name string, createdAt time.Time, token string) string {
	return strings.Join([]string{
		payloadMarker,
		strconv.FormatInt(facultyID, 10),
		name,
		createdAt.Format(time.RFC3339),
		token,
	}, payloadDelim)
}

// ParsePayload decodes a scanned string. It performs no freshness or store
// checks; a malformed shape fails before any lookup can happen.
func ParsePayload(raw string) (Payload, error) {
	if !strings.HasPrefix(raw, payloadMarker+payloadDelim) {
		return Payload{}, fmt.Errorf("invalid QR: %w", apperr.ErrMalformedPayload)
	}
	parts := strings.Split(raw, payloadDelim)
	if len(parts) != payloadFields {
		return Payload{}, fmt.Errorf("invalid QR: %w", apperr.ErrMalformedPayload)
	}

	facultyID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("invalid QR faculty id: %w", apperr.ErrMalformedPayload)
	}
	createdAt, err := time.Parse(time.RFC3339, parts[3])
	if err != nil {
		return Payload{}, fmt.Errorf("invalid QR timestamp: %w", apperr.ErrMalformedPayload)
	}

	return Payload{
		FacultyID: facultyID,
		Name:      parts[2],
		CreatedAt: createdAt,
		Token:     parts[4],
	}, nil
}

// NewToken mints a URL-safe session token with 32 bytes of entropy.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
