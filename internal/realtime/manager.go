package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/boardhive/boardhive/internal/bus"
	"github.com/boardhive/boardhive/internal/config"
	"github.com/boardhive/boardhive/internal/metrics"
	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/pkg/util"
)

// State represents the transport's connection state
type State int

const (
	// Disconnected means no session connection exists
	Disconnected State = iota

	// Connecting means a connect attempt is in flight
	Connecting

	// Connected means a session connection is established
	Connected
)

// connectAttempt is one in-flight connect request. Concurrent callers for
// the same session share the attempt and await its outcome instead of
// issuing a second handshake.
type connectAttempt struct {
	sessionID string
	once      sync.Once
	done      chan struct{}
	ok        bool
}

func newConnectAttempt(sessionID string) *connectAttempt {
	return &connectAttempt{sessionID: sessionID, done: make(chan struct{})}
}

// finish resolves the attempt exactly once
func (a *connectAttempt) finish(ok bool) {
	a.once.Do(func() {
		a.ok = ok
		close(a.done)
	})
}

// Manager owns the simulated session connection: at most one
// non-disconnected state exists per process. Connect requests are guarded by
// a monotonically increasing generation counter; a handshake callback whose
// generation is stale mutates nothing and fires no notifications.
type Manager struct {
	cfg     config.RealtimeConfig
	bus     *bus.Bus
	metrics metrics.Collector

	mu         sync.Mutex
	state      State
	generation uint64
	sessionID  string
	user       model.User
	roster     []model.User
	attempt    *connectAttempt
	timer      *time.Timer

	nextSubID  int
	connSubs   map[int]func(bool)
	rosterSubs map[int]func([]model.User)
}

// NewManager creates a connection manager publishing to the given bus
func NewManager(cfg config.RealtimeConfig, b *bus.Bus, m metrics.Collector) *Manager {
	return &Manager{
		cfg:        cfg,
		bus:        b,
		metrics:    m,
		connSubs:   make(map[int]func(bool)),
		rosterSubs: make(map[int]func([]model.User)),
	}
}

// Connect establishes the simulated connection to a session. It returns true
// on success and false on validation failure, supersession, timeout, or
// context cancellation; there is no distinct error type, callers treat false
// as "try again or abort".
//
// Reconnecting to the currently connected session resolves immediately.
// A concurrent connect to the same session attaches to the in-flight attempt
// (bounded by the configured wait timeout). A connect to a different session
// forces a disconnect first.
func (m *Manager) Connect(ctx context.Context, sessionID string, user model.User) bool {
	if sessionID == "" {
		log.Printf("Connect rejected: empty session id")
		return false
	}

	// Fill in identity defaults
	if user.Username == "" {
		user.Username = util.GuestUsername()
	}
	if user.AvatarColor == "" {
		user.AvatarColor = util.RandomAvatarColor()
	}

	m.mu.Lock()

	// Idempotent reuse of an established connection
	if m.state == Connected && m.sessionID == sessionID {
		m.mu.Unlock()
		return true
	}

	// Attach to an in-flight attempt for the same session
	if m.state == Connecting && m.attempt != nil && m.attempt.sessionID == sessionID {
		attempt := m.attempt
		m.mu.Unlock()

		select {
		case <-attempt.done:
			return attempt.ok
		case <-time.After(m.cfg.ConnectWaitTimeout):
			log.Printf("Timed out waiting for in-flight connect to %s", sessionID)
			return false
		case <-ctx.Done():
			return false
		}
	}

	// Connecting or connected elsewhere: force a disconnect first
	var stale *connectAttempt
	var staleSubs []func(bool)
	if m.state != Disconnected {
		log.Printf("Superseding connection to %s with connect to %s", m.sessionID, sessionID)
		stale = m.clearConnectionLocked()
		staleSubs = m.connSubsSnapshotLocked()
	}

	// Start a new attempt under the next generation
	m.generation++
	gen := m.generation
	attempt := newConnectAttempt(sessionID)
	m.state = Connecting
	m.sessionID = sessionID
	m.user = user
	m.roster = []model.User{user}
	m.attempt = attempt
	m.timer = time.AfterFunc(m.cfg.ConnectLatency, func() {
		m.completeConnect(gen, attempt)
	})
	m.mu.Unlock()

	if stale != nil {
		stale.finish(false)
	}
	for _, h := range staleSubs {
		h(false)
	}

	select {
	case <-attempt.done:
		return attempt.ok
	case <-ctx.Done():
		// The pending handshake must not establish the session after the
		// caller has given up; tear it down while it is still ours.
		m.mu.Lock()
		if m.attempt == attempt {
			stale := m.clearConnectionLocked()
			m.mu.Unlock()
			log.Printf("Connect to %s cancelled, dropping pending handshake", sessionID)
			stale.finish(false)
			return false
		}
		m.mu.Unlock()

		// The handshake resolved concurrently with the cancellation;
		// report its actual outcome.
		<-attempt.done
		return attempt.ok
	}
}

// completeConnect is the simulated handshake completion. It verifies the
// attempt is still the latest outstanding request before flipping state;
// notifications fire strictly after the flip.
func (m *Manager) completeConnect(gen uint64, attempt *connectAttempt) {
	m.mu.Lock()
	if gen != m.generation || m.state != Connecting {
		m.mu.Unlock()
		log.Printf("Connect to %s superseded by a newer request, dropping", attempt.sessionID)
		m.metrics.ConnectSuperseded()
		attempt.finish(false)
		return
	}

	m.state = Connected
	m.timer = nil
	m.attempt = nil
	sessionID := m.sessionID
	connSubs := m.connSubsSnapshotLocked()
	rosterSubs := m.rosterSubsSnapshotLocked()
	roster := m.rosterCopyLocked()
	m.mu.Unlock()

	log.Printf("Connected to session %s", sessionID)
	m.metrics.Connected(sessionID)
	m.metrics.ParticipantCount(len(roster))

	for _, h := range connSubs {
		h(true)
	}
	for _, h := range rosterSubs {
		h(append([]model.User(nil), roster...))
	}

	attempt.finish(true)
}

// Disconnect tears down the connection or cancels an in-flight attempt.
// No-op when already disconnected. Subscribers receive exactly one false
// notification.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state == Disconnected {
		m.mu.Unlock()
		return
	}

	sessionID := m.sessionID
	stale := m.clearConnectionLocked()
	connSubs := m.connSubsSnapshotLocked()
	m.mu.Unlock()

	if stale != nil {
		stale.finish(false)
	}

	log.Printf("Disconnected from session %s", sessionID)
	m.metrics.Disconnected(sessionID)

	for _, h := range connSubs {
		h(false)
	}
}

// clearConnectionLocked cancels the pending handshake timer, invalidates
// outstanding callbacks by bumping the generation, and resets all connection
// state. Returns the in-flight attempt, if any, for the caller to resolve
// outside the lock.
func (m *Manager) clearConnectionLocked() *connectAttempt {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	attempt := m.attempt
	m.attempt = nil
	m.generation++
	m.state = Disconnected
	m.sessionID = ""
	m.user = model.User{}
	m.roster = nil
	return attempt
}

// AddParticipant upserts a participant into the roster. No-op unless
// connected. New participants produce a system chat notification; roster
// subscribers always receive a snapshot copy.
func (m *Manager) AddParticipant(user model.User) {
	m.mu.Lock()
	if m.state != Connected {
		m.mu.Unlock()
		return
	}

	appended := false
	replaced := false
	for i, p := range m.roster {
		if p.Username == user.Username {
			m.roster[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		m.roster = append(m.roster, user)
		appended = true
	}

	sessionID := m.sessionID
	roster := m.rosterCopyLocked()
	rosterSubs := m.rosterSubsSnapshotLocked()
	m.mu.Unlock()

	if appended {
		m.publishSystemMessage(sessionID, user.Username+" has joined the session")
	}
	m.metrics.ParticipantCount(len(roster))

	for _, h := range rosterSubs {
		h(append([]model.User(nil), roster...))
	}
}

// RemoveParticipant removes a participant by username. No-op unless
// connected or when the username is not present.
func (m *Manager) RemoveParticipant(username string) {
	m.mu.Lock()
	if m.state != Connected {
		m.mu.Unlock()
		return
	}

	removed := false
	for i, p := range m.roster {
		if p.Username == username {
			m.roster = append(m.roster[:i], m.roster[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		m.mu.Unlock()
		return
	}

	sessionID := m.sessionID
	roster := m.rosterCopyLocked()
	rosterSubs := m.rosterSubsSnapshotLocked()
	m.mu.Unlock()

	m.publishSystemMessage(sessionID, username+" has left the session")
	m.metrics.ParticipantCount(len(roster))

	for _, h := range rosterSubs {
		h(append([]model.User(nil), roster...))
	}
}

// SendMessage broadcasts an envelope to all message subscribers after the
// configured loopback delay. No-op unless connected. Per-sender ordering is
// FIFO; there is no cross-sender ordering guarantee.
func (m *Manager) SendMessage(messageType string, payload interface{}) {
	m.mu.Lock()
	if m.state != Connected {
		m.mu.Unlock()
		return
	}
	env := model.Envelope{
		Type:      messageType,
		Payload:   payload,
		SessionID: m.sessionID,
		UserID:    m.user.Username,
		Timestamp: time.Now().UnixMilli(),
	}
	m.mu.Unlock()

	m.metrics.MessageBroadcast(messageType)
	time.AfterFunc(m.cfg.LoopbackDelay, func() {
		m.bus.Publish(env)
	})
}

// publishSystemMessage emits a system chat envelope immediately
func (m *Manager) publishSystemMessage(sessionID, text string) {
	m.metrics.MessageBroadcast(model.MessageTypeChat)
	m.bus.Publish(model.Envelope{
		Type:      model.MessageTypeChat,
		Payload:   model.ChatPayload{Text: text, IsSystem: true},
		SessionID: sessionID,
		UserID:    model.SystemUserID,
		Timestamp: time.Now().UnixMilli(),
	})
}

// OnMessage registers a handler for broadcast envelopes and returns an
// unsubscribe function
func (m *Manager) OnMessage(handler func(model.Envelope)) func() {
	return m.bus.Subscribe(handler)
}

// OnConnectionChange registers a connection-state handler. The handler is
// invoked immediately with the current state so late subscribers observe
// current truth. Returns an unsubscribe function.
func (m *Manager) OnConnectionChange(handler func(bool)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.connSubs[id] = handler
	connected := m.state == Connected
	m.mu.Unlock()

	handler(connected)

	return func() {
		m.mu.Lock()
		delete(m.connSubs, id)
		m.mu.Unlock()
	}
}

// OnParticipantsChange registers a roster handler. When already connected
// the initial callback is deferred by a short delay, which keeps rapid
// subscribe/unsubscribe cycles from producing notification storms. Returns
// an unsubscribe function.
func (m *Manager) OnParticipantsChange(handler func([]model.User)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.rosterSubs[id] = handler
	connected := m.state == Connected
	m.mu.Unlock()

	if connected {
		time.AfterFunc(m.cfg.RosterNotifyDelay, func() {
			m.mu.Lock()
			_, registered := m.rosterSubs[id]
			roster := m.rosterCopyLocked()
			m.mu.Unlock()
			if registered {
				handler(roster)
			}
		})
	}

	return func() {
		m.mu.Lock()
		delete(m.rosterSubs, id)
		m.mu.Unlock()
	}
}

// SessionID returns the id of the active session, or "" when disconnected
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// CurrentUser returns the connected user identity
func (m *Manager) CurrentUser() model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Participants returns a snapshot copy of the current roster
func (m *Manager) Participants() []model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosterCopyLocked()
}

// IsConnected reports whether a session connection is established
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Connected
}

// IsConnecting reports whether a connect attempt is in flight
func (m *Manager) IsConnecting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Connecting
}

func (m *Manager) rosterCopyLocked() []model.User {
	return append([]model.User(nil), m.roster...)
}

func (m *Manager) connSubsSnapshotLocked() []func(bool) {
	subs := make([]func(bool), 0, len(m.connSubs))
	for _, h := range m.connSubs {
		subs = append(subs, h)
	}
	return subs
}

func (m *Manager) rosterSubsSnapshotLocked() []func([]model.User) {
	subs := make([]func([]model.User), 0, len(m.rosterSubs))
	for _, h := range m.rosterSubs {
		subs = append(subs, h)
	}
	return subs
}
