package chat

import (
	"context"
	"errors"

	domain "github.com/imramesh222/chat-application/domain/chat"
	"gorm.io/gorm"
)

// MessageStore is the durable message log the engine writes to and
// replay reads from. Calls are bounded by the caller's context.
type MessageStore interface {
	// Save persists a message. The (room, sequence) pair is unique.
	Save(ctx context.Context, msg *domain.Message) error
	// RecentBefore returns up to limit messages for the room with
	// sequence below before, ordered ascending by sequence. A before of
	// 0 means no upper bound.
	RecentBefore(ctx context.Context, roomID string, before uint64, limit int) ([]*domain.Message, error)
	// LastSequences returns the highest persisted sequence per room.
	LastSequences(ctx context.Context) (map[string]uint64, error)
}

// RoomStore is the durable room catalog.
type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context) ([]*domain.Room, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// MessageRepository implements MessageStore using GORM.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Save persists a message.
func (r *MessageRepository) Save(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// RecentBefore returns the most recent messages below the sequence
// bound, ascending.
func (r *MessageRepository) RecentBefore(ctx context.Context, roomID string, before uint64, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := r.db.WithContext(ctx).Where("room_id = ?", roomID)
	if before > 0 {
		query = query.Where("sequence < ?", before)
	}

	// Fetch the newest window first, then reverse into ascending order.
	var messages []*domain.Message
	if err := query.Order("sequence DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// LastSequences returns the highest persisted sequence per room.
func (r *MessageRepository) LastSequences(ctx context.Context) (map[string]uint64, error) {
	type row struct {
		RoomID string
		Last   uint64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("room_id, MAX(sequence) AS last").
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	last := make(map[string]uint64, len(rows))
	for _, row := range rows {
		last[row.RoomID] = row.Last
	}
	return last, nil
}

// RoomRepository implements RoomStore using GORM.
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new RoomRepository.
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create persists a new room.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	result := r.db.WithContext(ctx).Create(room)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrRoomExists
		}
		return result.Error
	}
	return nil
}

// Get retrieves a room by ID.
func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	result := r.db.WithContext(ctx).First(&room, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, result.Error
	}
	return &room, nil
}

// List returns all rooms ordered by creation time.
func (r *RoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	var rooms []*domain.Room
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// Delete removes a room by ID.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Room{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// Exists checks if a room exists.
func (r *RoomRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}
