package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ProtocolVersion is embedded into every envelope.
const ProtocolVersion = "v1"

// Type constants (wire-stable).
const (
	// TypeHello asks the server to repeat the handshake ack (client -> server).
	TypeHello = "hello"
	// TypeHelloAck identifies the stream session (server -> client).
	TypeHelloAck = "hello_ack"

	// TypePing is an application-level liveness probe (client -> server).
	TypePing = "ping"
	// TypePong answers TypePing (server -> client).
	TypePong = "pong"

	// TypeProgressRecorded announces a new progress entry for the caller (server -> client).
	TypeProgressRecorded = "progress_recorded"

	// TypeError is a generic error envelope (server -> client).
	TypeError = "error"
)

var clientTypes = map[string]struct{}{
	TypeHello: {},
	TypePing:  {},
}

// Envelope is the canonical wire wrapper.
type Envelope struct {
	V       string          `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks an inbound (client -> server) envelope.
func (e Envelope) Validate() error {
	if e.V != ProtocolVersion {
		return fmt.Errorf("invalid protocol version: got=%q want=%q", e.V, ProtocolVersion)
	}
	if e.Type == "" {
		return errors.New("missing type")
	}
	if _, ok := clientTypes[e.Type]; !ok {
		return fmt.Errorf("unsupported type: %s", e.Type)
	}
	return nil
}

// HelloAckPayload is sent once after upgrade and on every TypeHello.
type HelloAckPayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// ProgressRecordedPayload mirrors the REST progress entry.
type ProgressRecordedPayload struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Seq        int64     `json:"seq"`
	LessonID   string    `json:"lesson_id"`
	Status     string    `json:"status"`
	XPEarned   int       `json:"xp_earned"`
	GemsEarned int       `json:"gems_earned"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ErrorPayload describes a rejected client frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
