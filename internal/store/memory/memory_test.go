package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/store"
)

func TestSessionRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	session := &model.Session{
		ID:           "room42",
		Name:         "Session room42",
		CreatedAt:    time.Now(),
		CreatedBy:    "alice",
		Participants: []model.User{{Username: "alice"}},
	}
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx, "room42")
	require.NoError(t, err)
	assert.Equal(t, "room42", got.ID)
	assert.Equal(t, "alice", got.CreatedBy)
}

func TestGetSessionNotFound(t *testing.T) {
	s := New()

	_, err := s.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestStoredSessionIsIsolatedFromCaller(t *testing.T) {
	s := New()
	ctx := context.Background()

	session := &model.Session{
		ID:           "room42",
		Participants: []model.User{{Username: "alice"}},
	}
	require.NoError(t, s.SaveSession(ctx, session))

	// Mutating the caller's copy must not leak into the store
	session.Participants[0].Username = "mutated"

	got, err := s.GetSession(ctx, "room42")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Participants[0].Username)

	// Neither must mutating the returned copy
	got.Participants[0].Username = "mutated"
	again, err := s.GetSession(ctx, "room42")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Participants[0].Username)
}

func TestListSessionsNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "older", CreatedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "newer", CreatedAt: time.Now()}))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "newer", sessions[0].ID)
	assert.Equal(t, "older", sessions[1].ID)
}

func TestDeleteSession(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &model.Session{ID: "room42"}))
	require.NoError(t, s.DeleteSession(ctx, "room42"))

	_, err := s.GetSession(ctx, "room42")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	assert.ErrorIs(t, s.DeleteSession(ctx, "room42"), store.ErrSessionNotFound)
}

func TestUserRecordLifecycle(t *testing.T) {
	s := New()
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
