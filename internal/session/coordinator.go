package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/boardhive/boardhive/internal/config"
	apperrors "github.com/boardhive/boardhive/internal/errors"
	"github.com/boardhive/boardhive/internal/metrics"
	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/realtime"
	"github.com/boardhive/boardhive/internal/store"
	"github.com/boardhive/boardhive/pkg/util"
)

// joinCall is one in-flight join. All concurrent joins for the same
// sanitized session id share a single call and await its outcome instead of
// issuing a second transport connect.
type joinCall struct {
	done    chan struct{}
	session *model.Session
	err     error
}

// Coordinator orchestrates session CRUD and join/create deduplication above
// the transport, and persists session metadata to the local store.
type Coordinator struct {
	cfg     config.RealtimeConfig
	baseURL string
	store   store.Store
	manager *realtime.Manager
	metrics metrics.Collector

	mu       sync.Mutex
	activeID string
	joins    map[string]*joinCall
}

// NewCoordinator creates a session coordinator
func NewCoordinator(cfg config.RealtimeConfig, baseURL string, st store.Store, manager *realtime.Manager, m metrics.Collector) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		baseURL: baseURL,
		store:   st,
		manager: manager,
		metrics: m,
		joins:   make(map[string]*joinCall),
	}
}

// CreateSession creates and persists a new session and connects to it.
// Username and avatar color are defaulted when absent. The transport connect
// is retried up to the configured attempt count with a short backoff; when
// all attempts fail the active-session marker is rolled back and
// ErrConnectionFailed is returned.
func (c *Coordinator) CreateSession(ctx context.Context, user model.User) (*model.Session, error) {
	if user.Username == "" {
		user.Username = util.GuestUsername()
	}
	if user.AvatarColor == "" {
		user.AvatarColor = util.RandomAvatarColor()
	}

	sessionID := util.GenerateSessionID()

	now := time.Now()
	session := &model.Session{
		ID:           sessionID,
		Name:         "Session " + now.Format("2006-01-02 15:04:05"),
		CreatedAt:    now,
		CreatedBy:    user.Username,
		LastModified: now,
		Participants: []model.User{user},
	}

	// Store failures fall back to in-memory state; they never abort the
	// session flow.
	if err := c.store.SaveSession(ctx, session); err != nil {
		log.Printf("Failed to persist session %s: %v", sessionID, err)
	}

	c.setActiveID(sessionID)

	if !c.connectWithRetry(ctx, sessionID, user) {
		c.clearActiveID(sessionID)
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrConnectionFailed, sessionID)
	}

	c.metrics.SessionCreated()
	log.Printf("Created session %s for %s", sessionID, user.Username)

	return session, nil
}

// connectWithRetry attempts the transport connect with bounded retries
func (c *Coordinator) connectWithRetry(ctx context.Context, sessionID string, user model.User) bool {
	attempts := c.cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if c.manager.Connect(ctx, sessionID, user) {
			return true
		}
		log.Printf("Connect attempt %d/%d failed for session %s", attempt, attempts, sessionID)

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(c.cfg.ConnectBackoff):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

// JoinSession joins an existing session by id. The id is sanitized (last
// path segment, query stripped) before lookup. At most one join per
// sanitized id is in flight at a time: concurrent callers attach to the
// first call's outcome, bounded by the configured join wait timeout.
func (c *Coordinator) JoinSession(ctx context.Context, sessionID string, user model.User) (*model.Session, error) {
	clean := util.SanitizeSessionID(sessionID)
	if clean == "" {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidSessionID, sessionID)
	}
	if user.Username == "" {
		return nil, apperrors.ErrUserRequired
	}

	c.mu.Lock()
	if call, exists := c.joins[clean]; exists {
		c.mu.Unlock()

		select {
		case <-call.done:
			return call.session, call.err
		case <-time.After(c.cfg.JoinWaitTimeout):
			return nil, fmt.Errorf("%w: session %s", apperrors.ErrJoinTimeout, clean)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &joinCall{done: make(chan struct{})}
	c.joins[clean] = call
	c.mu.Unlock()

	session, err := c.doJoin(ctx, clean, user)
	call.session, call.err = session, err
	close(call.done)

	c.mu.Lock()
	if c.joins[clean] == call {
		delete(c.joins, clean)
	}
	c.mu.Unlock()

	return session, err
}

// doJoin performs the actual join once the caller holds the in-flight slot
func (c *Coordinator) doJoin(ctx context.Context, sessionID string, user model.User) (*model.Session, error) {
	// Reuse the live connection when already in this session
	if c.ActiveSessionID() == sessionID && c.manager.IsConnected() && c.manager.SessionID() == sessionID {
		if session, err := c.store.GetSession(ctx, sessionID); err == nil {
			return session, nil
		}
	}

	session, err := c.store.GetSession(ctx, sessionID)
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		// No record for this id; synthesize a minimal one. The creator is
		// unknown without a server to ask.
		name := sessionID
		if len(name) > 8 {
			name = name[:8]
		}
		now := time.Now()
		session = &model.Session{
			ID:           sessionID,
			Name:         "Session " + name,
			CreatedAt:    now,
			CreatedBy:    "unknown",
			LastModified: now,
			Participants: []model.User{user},
		}
	case err != nil:
		log.Printf("Failed to read session %s, synthesizing record: %v", sessionID, err)
		now := time.Now()
		session = &model.Session{
			ID:           sessionID,
			CreatedAt:    now,
			CreatedBy:    "unknown",
			LastModified: now,
			Participants: []model.User{user},
		}
	default:
		session.AddParticipant(user)
		session.LastModified = time.Now()
	}

	if err := c.store.SaveSession(ctx, session); err != nil {
		log.Printf("Failed to persist session %s: %v", sessionID, err)
	}

	c.setActiveID(sessionID)

	if !c.manager.Connect(ctx, sessionID, user) {
		c.clearActiveID(sessionID)
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrConnectionFailed, sessionID)
	}

	c.metrics.SessionJoined()
	log.Printf("Joined session %s as %s", sessionID, user.Username)

	return session, nil
}

// LeaveSession leaves the active session. It cancels the in-flight join
// registry entry for the active session, disconnects the transport, and
// clears the active-session marker. Never fails; calling while not
// connected is a no-op.
func (c *Coordinator) LeaveSession() {
	c.mu.Lock()
	active := c.activeID
	c.activeID = ""
	if active != "" {
		delete(c.joins, active)
	}
	c.mu.Unlock()

	c.manager.Disconnect()

	if active != "" {
		log.Printf("Left session %s", active)
	}
}

// DeleteSession removes a session record from the store, leaving the
// session first when it is the active one
func (c *Coordinator) DeleteSession(ctx context.Context, sessionID string) error {
	if c.ActiveSessionID() == sessionID {
		c.LeaveSession()
	}

	if err := c.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	c.metrics.SessionDeleted()
	log.Printf("Deleted session %s", sessionID)

	return nil
}

// ShareableLink composes the canonical join URL for a session id. Pure and
// never fails: an empty or unusable id falls back to the whiteboard base
// URL with no session segment.
func (c *Coordinator) ShareableLink(sessionID string) string {
	base := c.baseURL + "/whiteboard"
	if sessionID == "" {
		return base
	}

	clean := util.SanitizeSessionID(sessionID)
	if clean == "" {
		return base
	}
	return base + "/" + clean
}

// SavedSessions returns all persisted session records, newest first. Store
// failures degrade to an empty list.
func (c *Coordinator) SavedSessions(ctx context.Context) []*model.Session {
	sessions, err := c.store.ListSessions(ctx)
	if err != nil {
		log.Printf("Failed to list sessions: %v", err)
		return nil
	}
	return sessions
}

// CurrentSession returns the record of the connected session, or nil when
// not connected or no record exists
func (c *Coordinator) CurrentSession(ctx context.Context) *model.Session {
	sessionID := c.manager.SessionID()
	if sessionID == "" {
		return nil
	}

	session, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil
	}
	return session
}

// ActiveSessionID returns the id of the session marked active, which may be
// set while a connect is still in flight
func (c *Coordinator) ActiveSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

func (c *Coordinator) setActiveID(sessionID string) {
	c.mu.Lock()
	c.activeID = sessionID
	c.mu.Unlock()
}

// clearActiveID rolls back the active marker if it still points at the
// given session
func (c *Coordinator) clearActiveID(sessionID string) {
	c.mu.Lock()
	if c.activeID == sessionID {
		c.activeID = ""
	}
	c.mu.Unlock()
}
