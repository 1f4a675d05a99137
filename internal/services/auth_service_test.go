package services

import (
	"context"
	"testing"
	"time"

	"seocoach-backend/internal/auth"
	"seocoach-backend/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewAuthService(s, "test-secret", time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	user, err := svc.Signup(ctx, "  Coach@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", user.Email)

	_, err = svc.Signup(ctx, "coach@example.com", "another-pass")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	token, loggedIn, err := svc.Login(ctx, "COACH@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := auth.ParseAccessToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", claims.Email)
}

func TestSignupValidation(t *testing.T) {
	svc := newAuthService(t)

	for _, tc := range []struct{ email, password string }{
		{"", "long-enough"},
		{"not-an-email", "long-enough"},
		{"a@example.com", "short"},
	} {
		_, err := svc.Signup(context.Background(), tc.email, tc.password)
		assert.ErrorIs(t, err, ErrValidation, tc.email)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	_, err := svc.Signup(ctx, "a@example.com", "correct-horse")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "a@example.com", "wrong-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
