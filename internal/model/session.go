package model

import (
	"time"
)

// User represents a participant identity. Usernames are unique within a
// session's participant set.
type User struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username"`
	AvatarColor string `json:"avatar_color,omitempty"`
}

// Session represents a whiteboard collaboration room
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by"`
	LastModified time.Time `json:"last_modified,omitempty"`

	// Participants are kept in join order.
	Participants []User `json:"participants"`
}

// AddParticipant upserts a user into the participant list keyed by username.
// Re-joining with the same username updates the entry instead of duplicating
// it. Returns true when a new entry was appended.
func (s *Session) AddParticipant(user User) bool {
	for i, p := range s.Participants {
		if p.Username == user.Username {
			s.Participants[i] = user
			return false
		}
	}
	s.Participants = append(s.Participants, user)
	return true
}

// RemoveParticipant removes a user by username, preserving join order.
// Returns true when an entry was removed.
func (s *Session) RemoveParticipant(username string) bool {
	for i, p := range s.Participants {
		if p.Username == username {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// HasParticipant reports whether a user with the given username is present.
func (s *Session) HasParticipant(username string) bool {
	for _, p := range s.Participants {
		if p.Username == username {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the session. Notifications and store reads hand
// out copies so callers cannot mutate shared state.
func (s *Session) Copy() *Session {
	sessionCopy := *s
	sessionCopy.Participants = make([]User, len(s.Participants))
	copy(sessionCopy.Participants, s.Participants)
	return &sessionCopy
}

// SessionCreateRequest represents a request to create a new session
type SessionCreateRequest struct {
	Name string `json:"name"`
}

// SessionJoinRequest represents a request to join an existing session
type SessionJoinRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}
