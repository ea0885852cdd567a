package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/database"
	"hotelbook/internal/domain"
	"hotelbook/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type sessionClaims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// AuthService checks credentials and issues signed session tokens.
type AuthService struct {
	repo   domain.Repository
	secret []byte
	issuer string
	ttl    time.Duration
	logger *zerolog.Logger
	now    func() time.Time
}

func NewAuthService(repo domain.Repository, cfg config.SessionConfig, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		logger: logger,
		now:    time.Now,
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// SeedUsers creates or refreshes the configured accounts.
func (s *AuthService) SeedUsers(ctx context.Context, seeds []config.UserSeed) error {
	for _, seed := range seeds {
		if _, err := bcrypt.Cost([]byte(seed.PasswordHash)); err != nil {
			return fmt.Errorf("user %s: password_hash is not a bcrypt hash: %w", seed.Email, err)
		}
		user := &models.User{
			Email:        seed.Email,
			FullName:     seed.FullName,
			PasswordHash: seed.PasswordHash,
		}
		if err := s.repo.CreateOrUpdateUser(ctx, user); err != nil {
			return err
		}
	}
	s.logger.Info().Int("count", len(seeds)).Msg("Users seeded")
	return nil
}

// Authenticate returns the account for valid credentials and
// ErrInvalidCredentials otherwise.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info().Str("email", user.Email).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs a session for the user and returns it with its expiry.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, expires, nil
}

// ParseToken validates a session token and returns the identity it carries.
func (s *AuthService) ParseToken(tokenString string) (*models.User, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Email == "" {
		return nil, ErrInvalidSession
	}
	return &models.User{Email: claims.Email, FullName: claims.FullName}, nil
}

// SafeReturnURL keeps redirects on this site. Anything other than a local
// absolute path becomes "/".
func SafeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return raw
}

// LoginRedirect is the login URL that returns to path afterwards.
func LoginRedirect(path string) string {
	return "/login?returnUrl=" + strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}
