package chat

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	domain "github.com/imramesh222/chat-application/domain/chat"
	"github.com/imramesh222/chat-application/domain/user"
)

// memMessageStore is an in-memory MessageStore for tests.
type memMessageStore struct {
	mu      sync.Mutex
	msgs    map[string][]*domain.Message
	saveErr error
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{msgs: make(map[string][]*domain.Message)}
}

func (s *memMessageStore) Save(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *msg
	s.msgs[msg.RoomID] = append(s.msgs[msg.RoomID], &copied)
	return nil
}

func (s *memMessageStore) RecentBefore(_ context.Context, roomID string, before uint64, limit int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Message
	for _, msg := range s.msgs[roomID] {
		if before == 0 || msg.Sequence < before {
			matched = append(matched, msg)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Sequence < matched[j].Sequence })
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (s *memMessageStore) LastSequences(_ context.Context) (map[string]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := make(map[string]uint64)
	for roomID, msgs := range s.msgs {
		for _, msg := range msgs {
			if msg.Sequence > last[roomID] {
				last[roomID] = msg.Sequence
			}
		}
	}
	return last, nil
}

func (s *memMessageStore) count(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs[roomID])
}

func (s *memMessageStore) setSaveErr(err error) {
	s.mu.Lock()
	s.saveErr = err
	s.mu.Unlock()
}

// memRoomStore is an in-memory RoomStore for tests.
type memRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
}

func newMemRoomStore(rooms ...*domain.Room) *memRoomStore {
	s := &memRoomStore{rooms: make(map[string]*domain.Room)}
	for _, room := range rooms {
		s.rooms[room.ID] = room
	}
	return s
}

func (s *memRoomStore) Create(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rooms {
		if existing.Name == room.Name {
			return ErrRoomExists
		}
	}
	copied := *room
	s.rooms[room.ID] = &copied
	return nil
}

func (s *memRoomStore) Get(_ context.Context, id string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *memRoomStore) List(_ context.Context) ([]*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]*domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}

func (s *memRoomStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(s.rooms, id)
	return nil
}

func (s *memRoomStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[id]
	return ok, nil
}

func testClaims(userID, name string) *user.Claims {
	return &user.Claims{
		UserID:      userID,
		Email:       userID + "@example.com",
		DisplayName: name,
		Role:        user.RoleUser,
	}
}

func newTestEngine() (*BroadcastEngine, *ConnectionRegistry, *SequenceAllocator, *memMessageStore) {
	seq := NewSequenceAllocator()
	reg := NewConnectionRegistry(seq)
	store := newMemMessageStore()
	return NewBroadcastEngine(reg, seq, store), reg, seq, store
}

func TestPublishAssignsSequentialSequences(t *testing.T) {
	engine, _, _, store := newTestEngine()
	ctx := context.Background()
	alice := testClaims("user-1", "Alice")

	for want := uint64(1); want <= 3; want++ {
		msg, err := engine.Publish(ctx, "room-1", alice, "message "+strconv.FormatUint(want, 10))
		if err != nil {
			t.Fatalf("Publish() error: %v", err)
		}
		if msg.Sequence != want {
			t.Errorf("Publish() sequence = %d, want %d", msg.Sequence, want)
		}
	}

	if got := store.count("room-1"); got != 3 {
		t.Errorf("persisted %d messages, want 3", got)
	}
}

func TestPublishValidation(t *testing.T) {
	engine, _, _, store := newTestEngine()
	ctx := context.Background()
	alice := testClaims("user-1", "Alice")

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "empty content",
			content: "",
			wantErr: ErrMessageEmpty,
		},
		{
			name:    "content over limit",
			content: strings.Repeat("a", MaxMessageLength+1),
			wantErr: ErrMessageTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Publish(ctx, "room-1", alice, tt.content)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := store.count("room-1"); got != 0 {
		t.Errorf("rejected messages were persisted: %d", got)
	}
}

func TestPublishStampsAuthor(t *testing.T) {
	engine, _, _, _ := newTestEngine()

	msg, err := engine.Publish(context.Background(), "room-1", testClaims("user-1", "Alice"), "hi")
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if msg.AuthorID != "user-1" {
		t.Errorf("AuthorID = %q, want %q", msg.AuthorID, "user-1")
	}
	if msg.AuthorName != "Alice" {
		t.Errorf("AuthorName = %q, want %q", msg.AuthorName, "Alice")
	}
	if msg.ID == "" {
		t.Error("message ID is empty")
	}
}

func TestPublishPersistFailureBurnsNoSequence(t *testing.T) {
	engine, _, seq, store := newTestEngine()
	ctx := context.Background()
	alice := testClaims("user-1", "Alice")

	store.setSaveErr(errors.New("disk full"))
	if _, err := engine.Publish(ctx, "room-1", alice, "lost"); !errors.Is(err, ErrPersistFailed) {
		t.Fatalf("Publish() with failing store error = %v, want %v", err, ErrPersistFailed)
	}
	if got := seq.Current("room-1"); got != 0 {
		t.Fatalf("sequence advanced to %d on failed persist, want 0", got)
	}

	store.setSaveErr(nil)
	msg, err := engine.Publish(ctx, "room-1", alice, "saved")
	if err != nil {
		t.Fatalf("Publish() after recovery error: %v", err)
	}
	if msg.Sequence != 1 {
		t.Errorf("first successful sequence = %d, want 1 (no gap)", msg.Sequence)
	}
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	engine, reg, _, _ := newTestEngine()

	subA := reg.Subscribe("room-1", "user-a")
	subB := reg.Subscribe("room-1", "user-b")
	other := reg.Subscribe("room-2", "user-c")

	msg, err := engine.Publish(context.Background(), "room-1", testClaims("user-a", "Alice"), "hello")
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	for _, sub := range []*Subscription{subA, subB} {
		got := <-sub.Messages()
		if got.ID != msg.ID {
			t.Errorf("subscriber received message %q, want %q", got.ID, msg.ID)
		}
	}

	select {
	case unexpected := <-other.Messages():
		t.Errorf("subscriber in another room received %v", unexpected)
	default:
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	engine, reg, _, store := newTestEngine()
	ctx := context.Background()
	alice := testClaims("user-1", "Alice")

	slow := reg.Subscribe("room-1", "slow-user")

	// Fill the queue and push one past it without draining.
	for i := 0; i <= DefaultOutboundBuffer; i++ {
		if _, err := engine.Publish(ctx, "room-1", alice, "flood"); err != nil {
			t.Fatalf("Publish() %d error: %v", i, err)
		}
	}

	if got := reg.RoomConnectionCount("room-1"); got != 0 {
		t.Errorf("slow subscriber still registered, count = %d", got)
	}

	// The buffered messages drain and then the channel reports closed.
	received := 0
	for range slow.Messages() {
		received++
	}
	if received != DefaultOutboundBuffer {
		t.Errorf("drained %d messages, want %d", received, DefaultOutboundBuffer)
	}

	// Every message persisted regardless of the drop.
	if got := store.count("room-1"); got != DefaultOutboundBuffer+1 {
		t.Errorf("persisted %d messages, want %d", got, DefaultOutboundBuffer+1)
	}
}

func TestConcurrentPublishOrderingPerSubscriber(t *testing.T) {
	const (
		publishers = 8
		perPub     = 50
	)

	engine, reg, _, _ := newTestEngine()
	reg.buffer = publishers*perPub + 1

	sub := reg.Subscribe("room-1", "observer")

	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			author := testClaims("user-"+strconv.Itoa(i), "User")
			for j := 0; j < perPub; j++ {
				if _, err := engine.Publish(context.Background(), "room-1", author, "msg"); err != nil {
					t.Errorf("Publish() error: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	sub.Close()

	// The subscriber observes every sequence exactly once, ascending,
	// with no gaps, regardless of publisher interleaving.
	want := sub.FromSequence()
	for msg := range sub.Messages() {
		if msg.Sequence != want {
			t.Fatalf("received sequence %d, want %d", msg.Sequence, want)
		}
		want++
	}
	if got := want - sub.FromSequence(); got != publishers*perPub {
		t.Errorf("received %d messages, want %d", got, publishers*perPub)
	}
}

func TestMessageSentHook(t *testing.T) {
	engine, _, _, _ := newTestEngine()

	var hooked []*domain.Message
	engine.SetMessageSentHook(func(msg *domain.Message) {
		hooked = append(hooked, msg)
	})

	msg, err := engine.Publish(context.Background(), "room-1", testClaims("user-1", "Alice"), "hi")
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	if len(hooked) != 1 || hooked[0].ID != msg.ID {
		t.Errorf("hook observed %d messages, want the published one", len(hooked))
	}
}
