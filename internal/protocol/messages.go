// Package protocol defines the network message types exchanged between the
// simulation host and spectator clients.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the type of message.
type MessageType string

// Authentication message types
const (
	TypeAuthenticate MessageType = "authenticate"
	TypeAuthResult   MessageType = "auth_result"
)

// Session message types
const (
	TypeSessionInfo MessageType = "session_info"
	TypeFrame       MessageType = "frame"
	TypeEvent       MessageType = "event"
	TypeHistory     MessageType = "history"
	TypeGetHistory  MessageType = "get_history"
	TypeTileInfo    MessageType = "tile_info"
)

// Command message types
const (
	TypeSetMinimapMode  MessageType = "set_minimap_mode"
	TypeSetLayer        MessageType = "set_layer"
	TypeInspectTile     MessageType = "inspect_tile"
	TypeTrainUnit       MessageType = "train_unit"
	TypeCancelTraining  MessageType = "cancel_training"
	TypeCancelBuilding  MessageType = "cancel_building"
	TypeSaveGame        MessageType = "save_game"
	TypeGameSaved       MessageType = "game_saved"
	TypeListSaves       MessageType = "list_saves"
	TypeSaveList        MessageType = "save_list"
	TypeCommandAccepted MessageType = "command_accepted"
)

// System message types
const (
	TypeWelcome MessageType = "welcome"
	TypeError   MessageType = "error"
	TypePing    MessageType = "ping"
	TypePong    MessageType = "pong"
)

// Message is the envelope for all messages.
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id"`
	ReplyTo   string          `json:"reply_to,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewMessage creates a new message with the given type and payload.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   data,
	}, nil
}

// NewReply creates a message answering req.
func NewReply(req *Message, msgType MessageType, payload any) (*Message, error) {
	m, err := NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	m.ReplyTo = req.ID
	return m, nil
}

// ParsePayload unmarshals the payload into the given type.
func (m *Message) ParsePayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// ErrorCode represents an error type.
type ErrorCode string

const (
	ErrCodeInvalidMessage        ErrorCode = "invalid_message"
	ErrCodeInvalidCommand        ErrorCode = "invalid_command"
	ErrCodeUnknownUnit           ErrorCode = "unknown_unit"
	ErrCodeInsufficientResources ErrorCode = "insufficient_resources"
	ErrCodeLimitReached          ErrorCode = "limit_reached"
	ErrCodeNotAuthenticated      ErrorCode = "not_authenticated"
	ErrCodeSaveNotFound          ErrorCode = "save_not_found"
	ErrCodeRateLimited           ErrorCode = "rate_limited"
	ErrCodeInternalError         ErrorCode = "internal_error"
)

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
