package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	apperrors "github.com/boardhive/boardhive/internal/errors"
	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/store"
)

const (
	sessionsFile = "sessions.json"
	userFile     = "user.json"
)

// FileStore implements store.Store on top of JSON files in a data directory.
// It is the local-storage analog: two fixed keys, read-modify-write with no
// cross-process locking, and malformed records treated as absent.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// New creates a file-based store rooted at dir, creating it if needed
func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// readSessions loads the session array, tolerating missing or corrupt data
func (s *FileStore) readSessions() []*model.Session {
	data, err := os.ReadFile(filepath.Join(s.dir, sessionsFile))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read session store, treating as empty: %v", err)
		}
		return nil
	}

	var sessions []*model.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf("Malformed session store, treating as empty: %v", err)
		return nil
	}
	return sessions
}

// writeSessions persists the session array
func (s *FileStore) writeSessions(sessions []*model.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("%w: encode sessions: %v", apperrors.ErrPersistence, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, sessionsFile), data, 0o644); err != nil {
		return fmt.Errorf("%w: write sessions: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// SaveSession creates or replaces a session record
func (s *FileStore) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.readSessions()
	replaced := false
	for i, existing := range sessions {
		if existing.ID == session.ID {
			sessions[i] = session.Copy()
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session.Copy())
	}

	return s.writeSessions(sessions)
}

// GetSession retrieves a session record by id
func (s *FileStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.readSessions() {
		if session.ID == id {
			return session.Copy(), nil
		}
	}
	return nil, store.ErrSessionNotFound
}

// ListSessions retrieves all session records, newest first
func (s *FileStore) ListSessions(ctx context.Context) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.readSessions()
	out := make([]*model.Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.Copy())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// DeleteSession removes a session record
func (s *FileStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.readSessions()
	filtered := sessions[:0]
	found := false
	for _, session := range sessions {
		if session.ID == id {
			found = true
			continue
		}
		filtered = append(filtered, session)
	}
	if !found {
		return store.ErrSessionNotFound
	}

	return s.writeSessions(filtered)
}

// SaveUser stores the authenticated user record
func (s *FileStore) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%w: encode user: %v", apperrors.ErrPersistence, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, userFile), data, 0o644); err != nil {
		return fmt.Errorf("%w: write user: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// GetUser retrieves the authenticated user record
func (s *FileStore) GetUser(ctx context.Context) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, userFile))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read user record, treating as absent: %v", err)
		}
		return nil, store.ErrUserNotFound
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		log.Printf("Malformed user record, treating as absent: %v", err)
		return nil, store.ErrUserNotFound
	}
	if user.Username == "" {
		return nil, store.ErrUserNotFound
	}

	return &user, nil
}

// DeleteUser removes the authenticated user record
func (s *FileStore) DeleteUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filepath.Join(s.dir, userFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove user: %v", apperrors.ErrPersistence, err)
	}
	return nil
}
