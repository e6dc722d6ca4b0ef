package chat

import (
	"log/slog"
	"sync"

	domain "github.com/imramesh222/chat-application/domain/chat"
	"github.com/google/uuid"
)

// DefaultOutboundBuffer is the per-connection outbound queue size. A
// subscriber whose queue fills up is dropped and disconnected rather
// than allowed to stall the room.
const DefaultOutboundBuffer = 64

// ConnectionInfo is a read-only view of one live subscription.
type ConnectionInfo struct {
	ConnectionID string
	RoomID       string
	Subject      string
	FromSequence uint64
}

// ConnectionRegistry tracks live connections per room. Each room's
// entry carries the mutex that serializes subscription changes and the
// publish section, so rooms never contend with each other.
type ConnectionRegistry struct {
	seq    *SequenceAllocator
	logger *slog.Logger
	buffer int

	mu     sync.RWMutex
	rooms  map[string]*roomState
	closed bool
}

type roomState struct {
	// mu is the room's single-writer section: it guards the subscriber
	// set, the sequence reservation, persistence, and the enqueue loop.
	mu   sync.Mutex
	subs map[string]*Subscription
}

// Subscription is the handle returned by Subscribe. It carries the
// room's lower bound sequence at subscribe time and the buffered
// channel live messages are delivered on.
type Subscription struct {
	id      string
	roomID  string
	subject string
	from    uint64
	ch      chan *domain.Message
	room    *roomState
	once    sync.Once
}

// NewConnectionRegistry creates a registry issuing sequence lower
// bounds from seq.
func NewConnectionRegistry(seq *SequenceAllocator) *ConnectionRegistry {
	return &ConnectionRegistry{
		seq:    seq,
		logger: slog.Default(),
		buffer: DefaultOutboundBuffer,
		rooms:  make(map[string]*roomState),
	}
}

func (r *ConnectionRegistry) roomFor(roomID string) *roomState {
	r.mu.RLock()
	rs, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return rs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok := r.rooms[roomID]; ok {
		return rs
	}
	rs = &roomState{subs: make(map[string]*Subscription)}
	r.rooms[roomID] = rs
	return rs
}

// Subscribe adds a connection to the room's subscriber set and returns
// its handle. The handle's FromSequence is computed inside the room's
// publish section: every persisted message below it is visible to a
// subsequent history fetch, and every message at or above it will be
// enqueued on the handle's channel.
func (r *ConnectionRegistry) Subscribe(roomID, subject string) *Subscription {
	rs := r.roomFor(roomID)

	sub := &Subscription{
		id:      uuid.New().String(),
		roomID:  roomID,
		subject: subject,
		ch:      make(chan *domain.Message, r.buffer),
		room:    rs,
	}

	rs.mu.Lock()
	sub.from = r.seq.Current(roomID) + 1
	rs.subs[sub.id] = sub
	rs.mu.Unlock()

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		sub.Close()
	}

	r.logger.Debug("subscribed", "roomID", roomID, "subject", subject, "from", sub.from)
	return sub
}

// Close removes the subscription from its room and closes the delivery
// channel. Safe to call more than once; a second call is a no-op.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.room.mu.Lock()
		delete(s.room.subs, s.id)
		close(s.ch)
		s.room.mu.Unlock()
	})
}

// Messages returns the live delivery channel. The channel is closed
// when the subscription is closed.
func (s *Subscription) Messages() <-chan *domain.Message {
	return s.ch
}

// FromSequence returns the first live sequence the subscription is
// guaranteed to receive.
func (s *Subscription) FromSequence() uint64 {
	return s.from
}

// RoomID returns the room this subscription belongs to.
func (s *Subscription) RoomID() string {
	return s.roomID
}

// Subject returns the identity the subscription was opened for.
func (s *Subscription) Subject() string {
	return s.subject
}

// Snapshot returns the connections subscribed to the room at call time.
func (r *ConnectionRegistry) Snapshot(roomID string) []ConnectionInfo {
	r.mu.RLock()
	rs, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	infos := make([]ConnectionInfo, 0, len(rs.subs))
	for _, sub := range rs.subs {
		infos = append(infos, ConnectionInfo{
			ConnectionID: sub.id,
			RoomID:       sub.roomID,
			Subject:      sub.subject,
			FromSequence: sub.from,
		})
	}
	return infos
}

// ConnectionCount returns the total number of live subscriptions.
func (r *ConnectionRegistry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, rs := range r.rooms {
		rs.mu.Lock()
		total += len(rs.subs)
		rs.mu.Unlock()
	}
	return total
}

// RoomConnectionCount returns the number of live subscriptions in a room.
func (r *ConnectionRegistry) RoomConnectionCount(roomID string) int {
	r.mu.RLock()
	rs, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.subs)
}

// CloseAll closes every subscription and marks the registry closed.
// Used at shutdown to drain connections instead of relying on process
// exit.
func (r *ConnectionRegistry) CloseAll() {
	r.mu.Lock()
	r.closed = true
	rooms := make([]*roomState, 0, len(r.rooms))
	for _, rs := range r.rooms {
		rooms = append(rooms, rs)
	}
	r.mu.Unlock()

	var subs []*Subscription
	for _, rs := range rooms {
		rs.mu.Lock()
		for _, sub := range rs.subs {
			subs = append(subs, sub)
		}
		rs.mu.Unlock()
	}
	for _, sub := range subs {
		sub.Close()
	}

	if len(subs) > 0 {
		r.logger.Info("closed all subscriptions", "count", len(subs))
	}
}
