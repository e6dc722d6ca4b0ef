package chat

import "time"

// Room represents a chat room. Rooms scope a message stream and its
// subscriber set.
type Room struct {
	ID          string `gorm:"primaryKey;type:text"`
	Name        string `gorm:"uniqueIndex;not null;type:text"`
	Description string `gorm:"type:text"`
	OwnerID     string `gorm:"not null;type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for the Room entity.
func (Room) TableName() string {
	return "rooms"
}

// Message represents a persisted chat message. Sequence is assigned
// exactly once at persistence time and is strictly increasing per room.
// AuthorName is denormalized at publish time so history replay does not
// need a user lookup per message.
type Message struct {
	ID         string    `gorm:"primaryKey;type:text" json:"id"`
	RoomID     string    `gorm:"not null;type:text;uniqueIndex:idx_room_sequence" json:"room_id"`
	AuthorID   string    `gorm:"not null;type:text" json:"author_id"`
	AuthorName string    `gorm:"not null;type:text" json:"author_display_name"`
	Content    string    `gorm:"not null;type:text" json:"content"`
	Sequence   uint64    `gorm:"not null;uniqueIndex:idx_room_sequence" json:"sequence"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}
