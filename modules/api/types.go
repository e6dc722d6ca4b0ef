package api

import (
	"time"

	"github.com/imramesh222/chat-application/domain/user"
	"github.com/imramesh222/chat-application/modules/stats"
)

// ErrorResponse is the common error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the session token issued at login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	Role        user.Role `json:"role"`
}

// CreateRoomRequest is the room creation payload.
type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoomResponse is the public view of a room.
type RoomResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoomStatsResponse is the activity counters for a room.
type RoomStatsResponse struct {
	RoomID string          `json:"room_id"`
	Stats  stats.RoomStats `json:"stats"`
}
