package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"qrattend/internal/apperr"
)

// MockRepository is a mock implementation of Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, username, email, passwordHash, role string) (int64, error) {
	args := m.Called(ctx, username, email, passwordHash, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetByUsername(ctx context.Context, username string) (*User, string, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*User), args.String(1), args.Error(2)
}

func TestRegisterRejectsEmptyFields(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)

	cases := [][4]string{
		{"", "a@test.com", "pw", RoleStudent},
		{"alice", "", "pw", RoleStudent},
		{"alice", "a@test.com", "", RoleStudent},
		{"alice", "a@test.com", "pw", ""},
	}
	for _, tc := range cases {
		err := svc.Register(context.Background(), tc[0], tc[1], tc[2], tc[3])
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	repo.AssertNotCalled(t, "Exists")
	repo.AssertNotCalled(t, "Create")
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)

	err := svc.Register(context.Background(), "alice", "a@test.com", "pw", "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegisterRejectsExistingUser(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Exists", mock.Anything, "alice", "a@test.com").Return(true, nil)
	svc := NewService(repo)

	err := svc.Register(context.Background(), "alice", "a@test.com", "pw", RoleStudent)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	repo.AssertNotCalled(t, "Create")
}

func TestRegisterStoresBcryptHash(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Exists", mock.Anything, "alice", "a@test.com").Return(false, nil)
	repo.On("Create", mock.Anything, "alice", "a@test.com", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret123")) == nil
	}), RoleStudent).Return(int64(1), nil)
	svc := NewService(repo)

	err := svc.Register(context.Background(), "alice", "a@test.com", "secret123", RoleStudent)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLoginRoundTrip(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := new(MockRepository)
	repo.On("GetByUsername", mock.Anything, "alice").
		Return(&User{ID: 7, Username: "alice", Role: RoleFaculty}, string(hash), nil)
	svc := NewService(repo)

	user, err := svc.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, RoleFaculty, user.Role)

	_, err = svc.Login(context.Background(), "alice", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByUsername", mock.Anything, "ghost").Return(nil, "", nil)
	svc := NewService(repo)

	_, err := svc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginRejectsEmptyFields(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)

	_, err := svc.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
