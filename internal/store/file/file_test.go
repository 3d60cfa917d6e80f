package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/store"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	return s, dir
}

func TestSessionRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	session := &model.Session{
		ID:           "room42",
		Name:         "Session room42",
		CreatedAt:    time.Now(),
		CreatedBy:    "alice",
		Participants: []model.User{{Username: "alice", AvatarColor: "#112233"}},
	}
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx, "room42")
	require.NoError(t, err)
	assert.Equal(t, "room42", got.ID)
	assert.Equal(t, "alice", got.CreatedBy)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, "#112233", got.Participants[0].AvatarColor)
}

func TestSaveSessionReplacesExisting(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "room42", Name: "first"}))
	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "room42", Name: "second"}))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "second", sessions[0].Name)
}

func TestGetSessionNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestListSessionsNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "older", CreatedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "newer", CreatedAt: time.Now()}))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "newer", sessions[0].ID)
}

func TestDeleteSession(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "room42"}))
	require.NoError(t, s.DeleteSession(ctx, "room42"))

	_, err := s.GetSession(ctx, "room42")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	assert.ErrorIs(t, s.DeleteSession(ctx, "room42"), store.ErrSessionNotFound)
}

func TestCorruptSessionsFileTreatedAsEmpty(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionsFile), []byte("{not json"), 0o644))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// The store keeps working after the corrupt read
	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "room42"}))
	got, err := s.GetSession(ctx, "room42")
	require.NoError(t, err)
	assert.Equal(t, "room42", got.ID)
}

func TestUserRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	require.NoError(t, s.SaveUser(ctx, &model.User{Username: "alice", AvatarColor: "#112233"}))

	user, err := s.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	require.NoError(t, s.DeleteUser(ctx))
	_, err = s.GetUser(ctx)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestMalformedUserRecordTreatedAsAbsent(t *testing.T) {
	s, dir := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, userFile), []byte("garbage"), 0o644))

	_, err := s.GetUser(context.Background())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserRecordWithoutUsernameTreatedAsAbsent(t *testing.T) {
	s, dir := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, userFile), []byte(`{"avatar_color":"#112233"}`), 0o644))

	_, err := s.GetUser(context.Background())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestDeleteUserWhenAbsentIsNoop(t *testing.T) {
	s, _ := newTestStore(t)

	assert.NoError(t, s.DeleteUser(context.Background()))
}
