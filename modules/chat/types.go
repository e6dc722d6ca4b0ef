package chat

import (
	"errors"
	"time"

	domain "github.com/imramesh222/chat-application/domain/chat"
)

// Validation constants
const (
	MaxRoomNameLength   = 100
	MaxMessageLength    = 4096
	DefaultHistoryLimit = 50
)

var (
	// ErrRoomNotFound is returned when a room does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists is returned when a room name is already taken.
	ErrRoomExists = errors.New("room with this name already exists")
	// ErrRoomNameEmpty is returned when a room name is empty.
	ErrRoomNameEmpty = errors.New("room name cannot be empty")
	// ErrRoomNameTooLong is returned when a room name exceeds the limit.
	ErrRoomNameTooLong = errors.New("room name exceeds maximum length")
	// ErrMessageEmpty is returned when message content is empty.
	ErrMessageEmpty = errors.New("message content cannot be empty")
	// ErrMessageTooLong is returned when message content exceeds the limit.
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	// ErrPersistFailed is returned when the durable store rejected or
	// timed out on a message write. Nothing was broadcast.
	ErrPersistFailed = errors.New("message persistence failed")
	// ErrHistoryFetchFailed is returned when the history read during
	// replay fails. The connection is closed rather than going live
	// with an incomplete history.
	ErrHistoryFetchFailed = errors.New("history fetch failed")
	// ErrForbidden is returned when the caller lacks the capability for
	// an operation.
	ErrForbidden = errors.New("operation not permitted")
)

// ValidateRoomName checks room name constraints.
func ValidateRoomName(name string) error {
	if name == "" {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	return nil
}

// ValidateMessage checks message content constraints.
func ValidateMessage(content string) error {
	if content == "" {
		return ErrMessageEmpty
	}
	if len(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// MessageFrame is the wire representation of one delivered message,
// sent as a single JSON object per message during replay and live
// delivery.
type MessageFrame struct {
	ID                string    `json:"id"`
	Content           string    `json:"content"`
	AuthorID          string    `json:"author_id"`
	RoomID            string    `json:"room_id"`
	AuthorDisplayName string    `json:"author_display_name"`
	Sequence          uint64    `json:"sequence"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ErrorFrame is sent to a client whose inbound message was rejected.
type ErrorFrame struct {
	Error string `json:"error"`
}

// NewMessageFrame builds the outbound frame for a message.
func NewMessageFrame(msg *domain.Message) MessageFrame {
	return MessageFrame{
		ID:                msg.ID,
		Content:           msg.Content,
		AuthorID:          msg.AuthorID,
		RoomID:            msg.RoomID,
		AuthorDisplayName: msg.AuthorName,
		Sequence:          msg.Sequence,
		CreatedAt:         msg.CreatedAt,
		UpdatedAt:         msg.UpdatedAt,
	}
}
