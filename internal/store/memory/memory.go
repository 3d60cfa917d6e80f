package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/store"
)

// MemoryStore implements store.Store with in-memory storage
type MemoryStore struct {
	sessions map[string]*model.Session // Map of sessionID -> Session
	user     *model.User
	mu       sync.RWMutex
}

// New creates a new memory-based store
func New() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
	}
}

// SaveSession creates or replaces a session record
func (s *MemoryStore) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	s.sessions[session.ID] = session.Copy()

	return nil
}

// GetSession retrieves a session record by id
func (s *MemoryStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, store.ErrSessionNotFound
	}

	// Return a copy to prevent concurrent modification
	return session.Copy(), nil
}

// ListSessions retrieves all session records sorted by creation time,
// newest first
func (s *MemoryStore) ListSessions(ctx context.Context) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*model.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session.Copy())
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

// DeleteSession removes a session record
func (s *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return store.ErrSessionNotFound
	}

	delete(s.sessions, id)

	return nil
}

// SaveUser stores the authenticated user record
func (s *MemoryStore) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userCopy := *user
	s.user = &userCopy

	return nil
}

// GetUser retrieves the authenticated user record
func (s *MemoryStore) GetUser(ctx context.Context) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, store.ErrUserNotFound
	}

	userCopy := *s.user
	return &userCopy, nil
}

// DeleteUser removes the authenticated user record
func (s *MemoryStore) DeleteUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil

	return nil
}
