package service

import (
	"context"
	"testing"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/database"
	"hotelbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAuth(repo *mockRepo) *AuthService {
	logger := zerolog.Nop()
	s := NewAuthService(repo, config.SessionConfig{
		Secret: "0123456789abcdef0123",
		Issuer: "hotelbook",
		TTL:    time.Hour,
	}, &logger)
	s.now = func() time.Time { return testNow }
	return s
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	repo := new(mockRepo)
	s := newTestAuth(repo)
	user := &models.User{ID: 1, Email: "jane@example.com", FullName: "Jane Doe", PasswordHash: hash}

	t.Run("Valid", func(t *testing.T) {
		repo.On("GetUserByEmail", ctx, "jane@example.com").Return(user, nil).Once()
		got, err := s.Authenticate(ctx, " jane@example.com ", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo.On("GetUserByEmail", ctx, "jane@example.com").Return(user, nil).Once()
		_, err := s.Authenticate(ctx, "jane@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		repo.On("GetUserByEmail", ctx, "who@example.com").Return(nil, database.ErrUserNotFound).Once()
		_, err := s.Authenticate(ctx, "who@example.com", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	repo.AssertExpectations(t)
}

func TestAuthService_SeedUsers(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	repo := new(mockRepo)
	s := newTestAuth(repo)

	repo.On("CreateOrUpdateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "jane@example.com" && u.PasswordHash == hash
	})).Return(nil).Once()

	require.NoError(t, s.SeedUsers(ctx, []config.UserSeed{{Email: "jane@example.com", FullName: "Jane", PasswordHash: hash}}))
	repo.AssertExpectations(t)

	err = s.SeedUsers(ctx, []config.UserSeed{{Email: "bad@example.com", PasswordHash: "plaintext"}})
	assert.Error(t, err)
}

func TestAuthService_Tokens(t *testing.T) {
	s := newTestAuth(new(mockRepo))
	user := &models.User{Email: "jane@example.com", FullName: "Jane Doe"}

	token, expires, err := s.IssueToken(user)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour), expires)

	got, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "Jane Doe", got.FullName)

	t.Run("Expired", func(t *testing.T) {
		later := newTestAuth(new(mockRepo))
		later.now = func() time.Time { return testNow.Add(2 * time.Hour) }
		_, err := later.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := newTestAuth(new(mockRepo))
		other.secret = []byte("another-secret-value")
		_, err := other.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other := newTestAuth(new(mockRepo))
		other.issuer = "someone-else"
		_, err := other.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := s.ParseToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestSafeReturnURL(t *testing.T) {
	tests := map[string]string{
		"":                          "/",
		"/booking/review":           "/booking/review",
		"/booking/payment?x=1":      "/booking/payment?x=1",
		"//evil.example.com":        "/",
		"/\\evil.example.com":       "/",
		"https://evil.example.com/": "/",
		"booking/review":            "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeReturnURL(in), "input %q", in)
	}
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login?returnUrl=/booking/review", LoginRedirect("/booking/review"))
	assert.Equal(t, "/login?returnUrl=/booking/payment", LoginRedirect("/booking/payment"))
}
