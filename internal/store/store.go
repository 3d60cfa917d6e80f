package store

import (
	"context"
	"errors"

	"github.com/boardhive/boardhive/internal/model"
)

var (
	// ErrSessionNotFound is returned when a session record does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrUserNotFound is returned when no user record is stored
	ErrUserNotFound = errors.New("user not found")
)

// Store defines the interface for the local key-value store holding session
// records and the authenticated user record. Readers tolerate missing or
// malformed records by treating them as absent; there is no schema
// versioning and no cross-process locking (last writer wins).
type Store interface {
	// SaveSession creates or replaces a session record
	SaveSession(ctx context.Context, session *model.Session) error

	// GetSession retrieves a session record by id
	GetSession(ctx context.Context, id string) (*model.Session, error)

	// ListSessions retrieves all session records
	ListSessions(ctx context.Context) ([]*model.Session, error)

	// DeleteSession removes a session record
	DeleteSession(ctx context.Context, id string) error

	// SaveUser stores the authenticated user record
	SaveUser(ctx context.Context, user *model.User) error

	// GetUser retrieves the authenticated user record
	GetUser(ctx context.Context) (*model.User, error)

	// DeleteUser removes the authenticated user record
	DeleteUser(ctx context.Context) error
}
