package chat

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	domain "github.com/imramesh222/chat-application/domain/chat"
	"github.com/imramesh222/chat-application/events"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ChatModule owns the rooms and messages tables, the sequence
// allocator, the connection registry, and the broadcast engine.
type ChatModule struct {
	db       *gorm.DB
	dbPath   string
	seq      *SequenceAllocator
	registry *ConnectionRegistry
	engine   *BroadcastEngine
	service  *RoomService
	rooms    RoomStore
	messages MessageStore
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*ChatModule)(nil)
	_ mono.EventBusAwareModule   = (*ChatModule)(nil)
	_ mono.EventEmitterModule    = (*ChatModule)(nil)
	_ mono.HealthCheckableModule = (*ChatModule)(nil)
)

// NewModule creates a new ChatModule.
func NewModule() *ChatModule {
	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = "chat.db"
	}
	return &ChatModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *ChatModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *ChatModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
	}
}

// Start opens the database, seeds the sequence allocator from the
// persisted log, and builds the registry and engine.
func (m *ChatModule) Start(ctx context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Room{}, &domain.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	messageRepo := NewMessageRepository(db)
	roomRepo := NewRoomRepository(db)
	m.messages = messageRepo
	m.rooms = roomRepo

	m.seq = NewSequenceAllocator()
	last, err := messageRepo.LastSequences(ctx)
	if err != nil {
		return fmt.Errorf("failed to load last sequences: %w", err)
	}
	for roomID, seq := range last {
		m.seq.Seed(roomID, seq)
	}

	m.registry = NewConnectionRegistry(m.seq)
	m.engine = NewBroadcastEngine(m.registry, m.seq, messageRepo)
	m.engine.SetMessageSentHook(m.emitMessageSent)
	m.service = NewRoomService(roomRepo, messageRepo)

	log.Printf("[chat] Module started (database: %s, rooms with history: %d)", m.dbPath, len(last))
	return nil
}

// Stop drains all live connections and closes the database.
func (m *ChatModule) Stop(_ context.Context) error {
	if m.registry != nil {
		m.registry.CloseAll()
	}
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[chat] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *ChatModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database":         m.dbPath,
			"live_connections": m.registry.ConnectionCount(),
		},
	}
}

// Service returns the room catalog service.
func (m *ChatModule) Service() *RoomService {
	return m.service
}

// Registry returns the connection registry.
func (m *ChatModule) Registry() *ConnectionRegistry {
	return m.registry
}

// Engine returns the broadcast engine.
func (m *ChatModule) Engine() *BroadcastEngine {
	return m.engine
}

// NewSession builds a RoomSession for the transport, wired to this
// module's registry, engine, and stores.
func (m *ChatModule) NewSession(transport Transport, authorizer SessionAuthorizer) *RoomSession {
	return NewRoomSession(transport, RoomSessionDeps{
		Authorizer: authorizer,
		Rooms:      m.rooms,
		Messages:   m.messages,
		Registry:   m.registry,
		Engine:     m.engine,
		Notifier:   m,
	})
}

// UserJoined publishes a UserJoined event. Best-effort.
func (m *ChatModule) UserJoined(roomID, userID string) {
	if m.eventBus == nil {
		return
	}
	event := events.UserJoinedEvent{
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	if err := events.UserJoinedV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish UserJoined event", "error", err)
	}
}

// UserLeft publishes a UserLeft event. Best-effort.
func (m *ChatModule) UserLeft(roomID, userID string) {
	if m.eventBus == nil {
		return
	}
	event := events.UserLeftEvent{
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	if err := events.UserLeftV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish UserLeft event", "error", err)
	}
}

// emitMessageSent publishes a MessageSent event after fan-out.
func (m *ChatModule) emitMessageSent(msg *domain.Message) {
	if m.eventBus == nil {
		return
	}
	event := events.MessageSentEvent{
		MessageID: msg.ID,
		RoomID:    msg.RoomID,
		AuthorID:  msg.AuthorID,
		Sequence:  msg.Sequence,
		Timestamp: msg.CreatedAt,
	}
	if err := events.MessageSentV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish MessageSent event", "error", err)
	}
}
