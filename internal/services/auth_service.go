package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"seocoach-backend/internal/auth"
	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"

	"github.com/google/uuid"
)

// Custom errors for auth service
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrCreatingUser       = errors.New("failed to create user")
	ErrValidation         = errors.New("input validation failed") // Generic validation error
)

const minPasswordLength = 8

// AuthService signs users up and issues access tokens whose email claim
// becomes the identity chat history is scoped by.
type AuthService struct {
	store           store.UserStore
	jwtSecret       string
	tokenExpiration time.Duration
}

func NewAuthService(s store.UserStore, jwtSecret string, tokenExpiration time.Duration) *AuthService {
	return &AuthService{
		store:           s,
		jwtSecret:       jwtSecret,
		tokenExpiration: tokenExpiration,
	}
}

// Signup creates a new user.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password cannot be empty", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to check user existence", "email", email, "error", err)
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, ErrHashingPassword
	}

	user := &models.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		slog.ErrorContext(ctx, "failed to create user", "email", email, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCreatingUser, err)
	}

	slog.InfoContext(ctx, "user signed up", "email", email, "user_id", user.ID)
	return user, nil
}

// Login verifies user credentials and returns an access token and user info.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials // Basic check before hitting DB
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials // Don't reveal if user exists or password is wrong
		}
		slog.ErrorContext(ctx, "failed to retrieve user during login", "email", email, "error", err)
		return "", nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(user.ID, user.Email, s.jwtSecret, s.tokenExpiration)
	if err != nil {
		return "", nil, ErrCreatingToken
	}

	slog.InfoContext(ctx, "user logged in", "email", email, "user_id", user.ID)
	return token, user, nil
}
