package model

// MessageType constants for broadcast envelopes
const (
	MessageTypeDrawing = "drawing"
	MessageTypeCursor  = "cursor"
	MessageTypeChat    = "chat"
	MessageTypeClear   = "clear"
)

// SystemUserID is the sender id used for system-generated chat messages,
// e.g. join/leave notifications.
const SystemUserID = "system"

// Envelope is an in-process broadcast message. Consumers ignore envelopes
// whose UserID equals their own current username (loopback suppression)
// unless they are explicitly designed to self-consume.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Timestamp int64       `json:"timestamp"`
}

// ChatPayload is the payload of a chat envelope
type ChatPayload struct {
	Text     string `json:"text"`
	Sender   string `json:"sender,omitempty"`
	IsSystem bool   `json:"is_system,omitempty"`
}

// CursorPayload is the payload of a cursor envelope
type CursorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
