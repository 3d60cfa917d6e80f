package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardhive/boardhive/internal/config"
	apperrors "github.com/boardhive/boardhive/internal/errors"
	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/store/memory"
)

func newTestService(expiration time.Duration) *Service {
	cfg := config.AuthConfig{
		JWTSecret:     "test-secret",
		JWTExpiration: expiration,
	}
	return NewService(cfg, memory.New())
}

func TestLoginStoresUserAndIssuesToken(t *testing.T) {
	s := newTestService(time.Hour)

	user, token, err := s.Login(context.Background(), "alice", "password", "#112233")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "#112233", user.AvatarColor)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "#112233", claims.AvatarColor)

	stored, err := s.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
}

func TestLoginRequiresCredentials(t *testing.T) {
	s := newTestService(time.Hour)

	_, _, err := s.Login(context.Background(), "", "password", "")
	assert.ErrorIs(t, err, ErrCredentialsRequired)

	_, _, err = s.Login(context.Background(), "alice", "", "")
	assert.ErrorIs(t, err, ErrCredentialsRequired)
}

func TestLoginDefaultsAvatarColor(t *testing.T) {
	s := newTestService(time.Hour)

	user, _, err := s.Login(context.Background(), "alice", "password", "")
	require.NoError(t, err)
	assert.NotEmpty(t, user.AvatarColor)
}

func TestCurrentUserUnauthenticatedWithoutRecord(t *testing.T) {
	s := newTestService(time.Hour)

	_, err := s.CurrentUser(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestLogoutRemovesRecord(t *testing.T) {
	s := newTestService(time.Hour)

	_, _, err := s.Login(context.Background(), "alice", "password", "")
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background()))

	_, err = s.CurrentUser(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestUpdateProfileMergesFields(t *testing.T) {
	s := newTestService(time.Hour)

	_, _, err := s.Login(context.Background(), "alice", "password", "#112233")
	require.NoError(t, err)

	updated, err := s.UpdateProfile(context.Background(), model.User{AvatarColor: "#445566"})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "#445566", updated.AvatarColor)
}

func TestUpdateProfileRequiresRecord(t *testing.T) {
	s := newTestService(time.Hour)

	_, err := s.UpdateProfile(context.Background(), model.User{Username: "alice"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	s := newTestService(time.Hour)

	_, token, err := s.Login(context.Background(), "alice", "password", "")
	require.NoError(t, err)

	_, err = s.ValidateToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTestService(time.Hour)
	verifier := NewService(config.AuthConfig{
		JWTSecret:     "different-secret",
		JWTExpiration: time.Hour,
	}, memory.New())

	_, token, err := issuer.Login(context.Background(), "alice", "password", "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	s := newTestService(-time.Minute)

	_, token, err := s.Login(context.Background(), "alice", "password", "")
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestExtractTokenFromRequest(t *testing.T) {
	s := newTestService(time.Hour)

	r := httptest.NewRequest("GET", "http://localhost/", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	token, err := s.ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	r = httptest.NewRequest("GET", "http://localhost/?token=qp456", nil)
	token, err = s.ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "qp456", token)

	r = httptest.NewRequest("GET", "http://localhost/", nil)
	_, err = s.ExtractTokenFromRequest(r)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestUserFromRequest(t *testing.T) {
	s := newTestService(time.Hour)

	_, token, err := s.Login(context.Background(), "alice", "password", "#112233")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "http://localhost/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	user, err := s.UserFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "#112233", user.AvatarColor)
}
