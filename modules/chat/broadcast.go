package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/imramesh222/chat-application/domain/chat"
	"github.com/imramesh222/chat-application/domain/user"
	"github.com/google/uuid"
)

// DefaultPersistTimeout bounds how long a publish waits on the durable
// store before reporting ErrPersistFailed.
const DefaultPersistTimeout = 5 * time.Second

// BroadcastEngine persists new messages and fans them out to the
// room's subscribers. Durability precedes visibility: a message that
// fails to persist is never broadcast.
type BroadcastEngine struct {
	registry       *ConnectionRegistry
	seq            *SequenceAllocator
	store          MessageStore
	persistTimeout time.Duration
	logger         *slog.Logger
	onMessageSent  func(*domain.Message)
}

// NewBroadcastEngine creates an engine publishing through registry and
// persisting via store.
func NewBroadcastEngine(registry *ConnectionRegistry, seq *SequenceAllocator, store MessageStore) *BroadcastEngine {
	return &BroadcastEngine{
		registry:       registry,
		seq:            seq,
		store:          store,
		persistTimeout: DefaultPersistTimeout,
		logger:         slog.Default(),
	}
}

// SetMessageSentHook installs a callback invoked after a message has
// been persisted and enqueued to subscribers. Used by the chat module
// to emit MessageSent events; not on the ordering-critical path.
func (e *BroadcastEngine) SetMessageSentHook(hook func(*domain.Message)) {
	e.onMessageSent = hook
}

// Publish validates, persists, and fans out a new message for the room.
//
// The room's single-writer section covers sequence reservation,
// persistence, and the enqueue loop, so sequences are gapless and every
// subscriber observes messages in sequence order. The allocator is only
// advanced after a successful persist, so a failed write does not burn
// a sequence number. Enqueue never blocks: a subscriber with a full
// queue is dropped and disconnected after the section is released.
func (e *BroadcastEngine) Publish(ctx context.Context, roomID string, author *user.Claims, content string) (*domain.Message, error) {
	if err := ValidateMessage(content); err != nil {
		return nil, err
	}

	rs := e.registry.roomFor(roomID)
	rs.mu.Lock()

	now := time.Now()
	msg := &domain.Message{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		AuthorID:   author.UserID,
		AuthorName: author.DisplayName,
		Content:    content,
		Sequence:   e.seq.Current(roomID) + 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	pctx, cancel := context.WithTimeout(ctx, e.persistTimeout)
	err := e.store.Save(pctx, msg)
	cancel()
	if err != nil {
		rs.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	e.seq.Next(roomID)

	var dropped []*Subscription
	for _, sub := range rs.subs {
		select {
		case sub.ch <- msg:
		default:
			dropped = append(dropped, sub)
		}
	}
	rs.mu.Unlock()

	for _, sub := range dropped {
		e.logger.Warn("dropping slow subscriber",
			"roomID", roomID,
			"subject", sub.subject,
			"sequence", msg.Sequence)
		sub.Close()
	}

	if e.onMessageSent != nil {
		e.onMessageSent(msg)
	}

	return msg, nil
}
