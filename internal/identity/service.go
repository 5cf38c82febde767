package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"qrattend/internal/apperr"
)

// Roles accepted at registration.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

// User is a registered account. Role is advisory; the service does not gate
// operations on it server-side.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists user accounts.
type Repository interface {
	// Exists reports whether a user with the username or email is present.
	Exists(ctx context.Context, username, email string) (bool, error)
	// Create inserts a user and returns its id.
	Create(ctx context.Context, username, email, passwordHash, role string) (int64, error)
	// GetByUsername returns the user and stored hash, or nil when absent.
	GetByUsername(ctx context.Context, username string) (*User, string, error)
}

// Service handles registration and credential checks.
type Service struct {
	repo Repository
}

// NewService creates a service backed by a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register validates fields, hashes the password, and stores the account.
func (s *Service) Register(ctx context.Context, username, email, password, role string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" || role == "" {
		return fmt.Errorf("all fields required: %w", apperr.ErrValidation)
	}
	if role != RoleStudent && role != RoleFaculty {
		return fmt.Errorf("role must be student or faculty: %w", apperr.ErrValidation)
	}

	taken, err := s.repo.Exists(ctx, username, email)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("user %s: %w", username, apperr.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.repo.Create(ctx, username, email, string(hash), role)
	return err
}

// Login verifies credentials and returns the account. Token issuance is the
// caller's concern.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, fmt.Errorf("username and password required: %w", apperr.ErrValidation)
	}

	user, hash, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if user == nil {
		return User{}, apperr.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, apperr.ErrInvalidCredentials
	}
	return *user, nil
}
