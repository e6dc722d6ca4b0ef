package chat

import (
	"context"
	"fmt"
	"time"

	domain "github.com/imramesh222/chat-application/domain/chat"
	"github.com/imramesh222/chat-application/domain/user"
	"github.com/google/uuid"
)

// RoomService provides room catalog operations and history queries for
// the REST surface.
type RoomService struct {
	rooms    RoomStore
	messages MessageStore
}

// NewRoomService creates a new RoomService.
func NewRoomService(rooms RoomStore, messages MessageStore) *RoomService {
	return &RoomService{
		rooms:    rooms,
		messages: messages,
	}
}

// CreateRoom creates a new room owned by the caller.
func (s *RoomService) CreateRoom(ctx context.Context, name, description string, owner *user.Claims) (*domain.Room, error) {
	if err := ValidateRoomName(name); err != nil {
		return nil, err
	}

	now := time.Now()
	room := &domain.Room{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		OwnerID:     owner.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoom retrieves a room by ID.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return s.rooms.Get(ctx, roomID)
}

// ListRooms returns all rooms.
func (s *RoomService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	return s.rooms.List(ctx)
}

// DeleteRoom removes a room. Only the owner, or a caller whose role
// grants CapManageAnyRoom, may delete it.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string, caller *user.Claims) error {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}

	if room.OwnerID != caller.UserID && !caller.Role.Can(user.CapManageAnyRoom) {
		return ErrForbidden
	}

	return s.rooms.Delete(ctx, roomID)
}

// History returns the most recent messages for a room, ascending by
// sequence.
func (s *RoomService) History(ctx context.Context, roomID string, limit int) ([]*domain.Message, error) {
	exists, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("room lookup: %w", err)
	}
	if !exists {
		return nil, ErrRoomNotFound
	}

	if limit <= 0 || limit > 1000 {
		limit = DefaultHistoryLimit
	}
	return s.messages.RecentBefore(ctx, roomID, 0, limit)
}
