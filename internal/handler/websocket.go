package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/boardhive/boardhive/internal/bus"
	"github.com/boardhive/boardhive/internal/config"
	"github.com/boardhive/boardhive/internal/metrics"
	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/pkg/util"
)

// wsClient represents a connected WebSocket client
type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	username  string
	limiter   *rate.Limiter
}

// WebSocketHandler bridges browser clients onto the session event bus. Each
// inbound frame is a JSON envelope published to the bus; every bus envelope
// for the client's session is relayed back out, except the client's own.
type WebSocketHandler struct {
	cfg      config.WebSocketConfig
	bus      *bus.Bus
	metrics  metrics.Collector
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cfg config.WebSocketConfig, b *bus.Bus, allowedOrigins []string, m metrics.Collector) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.BufferSize,
		WriteBufferSize: cfg.BufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			if len(allowedOrigins) == 0 {
				return true
			}

			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}

			return false
		},
	}

	return &WebSocketHandler{
		cfg:      cfg,
		bus:      b,
		metrics:  m,
		upgrader: upgrader,
	}
}

// ServeWS upgrades the connection and attaches the client to the bus
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := util.SanitizeSessionID(mux.Vars(r)["sessionId"])
	if sessionID == "" {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		username = util.GuestUsername()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &wsClient{
		conn:      conn,
		send:      make(chan []byte, h.cfg.BufferSize),
		sessionID: sessionID,
		username:  username,
		limiter:   rate.NewLimiter(rate.Limit(h.cfg.MessageRate), h.cfg.MessageBurst),
	}

	conn.SetReadLimit(h.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
		return nil
	})

	unsubscribe := h.bus.Subscribe(func(env model.Envelope) {
		if env.SessionID != client.sessionID || env.UserID == client.username {
			return
		}

		data, err := json.Marshal(env)
		if err != nil {
			log.Printf("Failed to marshal envelope: %v", err)
			return
		}

		// Drop rather than block on a slow consumer
		select {
		case client.send <- data:
		default:
		}
	})

	h.metrics.ClientAttached(sessionID)

	go h.writePump(client)
	go h.readPump(client, unsubscribe)
}

// readPump pumps envelopes from the WebSocket connection onto the bus
func (h *WebSocketHandler) readPump(client *wsClient, unsubscribe func()) {
	// The send channel is never closed: a bus dispatch snapshotted before
	// unsubscribe may still deliver. The write pump exits on the closed
	// connection instead.
	defer func() {
		unsubscribe()
		client.conn.Close()
		h.metrics.ClientDetached(client.sessionID)
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var env model.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Dropping malformed envelope: %v", err)
			continue
		}

		switch env.Type {
		case model.MessageTypeDrawing, model.MessageTypeCursor:
			if !client.limiter.Allow() {
				h.metrics.ClientThrottled(client.sessionID)
				continue
			}
		case model.MessageTypeChat, model.MessageTypeClear:
		default:
			continue
		}

		env.SessionID = client.sessionID
		if env.UserID == "" {
			env.UserID = client.username
		}
		if env.Timestamp == 0 {
			env.Timestamp = time.Now().UnixMilli()
		}
		if env.Type == model.MessageTypeDrawing {
			env.Payload = ensureStrokeID(env.Payload)
		}

		h.bus.Publish(env)
		h.metrics.MessageBroadcast(env.Type)
	}
}

// writePump pumps bus envelopes to the WebSocket connection
func (h *WebSocketHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ensureStrokeID assigns a ULID to drawing payloads that arrive without one
func ensureStrokeID(payload interface{}) interface{} {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return payload
	}

	if id, ok := m["id"].(string); !ok || id == "" {
		m["id"] = util.NewULID()
	}

	return m
}
