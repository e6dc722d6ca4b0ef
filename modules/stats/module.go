package stats

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/imramesh222/chat-application/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomStats holds the accumulated counters for one room.
type RoomStats struct {
	Messages uint64 `json:"messages"`
	Joins    uint64 `json:"joins"`
	Leaves   uint64 `json:"leaves"`
}

// StatsModule keeps per-room activity counters fed by chat events. The
// counters are in-memory only and reset on restart.
type StatsModule struct {
	mu    sync.Mutex
	rooms map[string]*RoomStats
}

var (
	_ mono.Module                = (*StatsModule)(nil)
	_ mono.EventConsumerModule   = (*StatsModule)(nil)
	_ mono.HealthCheckableModule = (*StatsModule)(nil)
)

// NewModule creates a new StatsModule.
func NewModule() *StatsModule {
	return &StatsModule{
		rooms: make(map[string]*RoomStats),
	}
}

// Name returns the module name.
func (m *StatsModule) Name() string {
	return "stats"
}

// Start initializes the module.
func (m *StatsModule) Start(_ context.Context) error {
	log.Println("[stats] Module started")
	return nil
}

// Stop shuts down the module.
func (m *StatsModule) Stop(_ context.Context) error {
	log.Println("[stats] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *StatsModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.Lock()
	tracked := len(m.rooms)
	m.mu.Unlock()

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"tracked_rooms": tracked,
		},
	}
}

// RegisterEventConsumers subscribes to the chat events.
func (m *StatsModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.MessageSentV1, m.handleMessageSent, m); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserJoinedV1, m.handleUserJoined, m); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserLeftV1, m.handleUserLeft, m); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	log.Println("[stats] Registered event consumers: MessageSent, UserJoined, UserLeft")
	return nil
}

// RoomStats returns a copy of the counters for a room. Rooms with no
// recorded activity report zeroes.
func (m *StatsModule) RoomStats(roomID string) RoomStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stats, ok := m.rooms[roomID]; ok {
		return *stats
	}
	return RoomStats{}
}

func (m *StatsModule) statsFor(roomID string) *RoomStats {
	if stats, ok := m.rooms[roomID]; ok {
		return stats
	}
	stats := &RoomStats{}
	m.rooms[roomID] = stats
	return stats
}

func (m *StatsModule) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.mu.Lock()
	m.statsFor(event.RoomID).Messages++
	m.mu.Unlock()
	return nil
}

func (m *StatsModule) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.mu.Lock()
	m.statsFor(event.RoomID).Joins++
	m.mu.Unlock()
	return nil
}

func (m *StatsModule) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.mu.Lock()
	m.statsFor(event.RoomID).Leaves++
	m.mu.Unlock()
	return nil
}
