package api

import (
	"errors"
	"log"
	"strings"

	domain "github.com/imramesh222/chat-application/domain/user"
	"github.com/imramesh222/chat-application/modules/auth"
	"github.com/imramesh222/chat-application/modules/chat"
	"github.com/imramesh222/chat-application/modules/stats"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	authAdapter auth.AuthPort
	chatModule  *chat.ChatModule
	statsModule *stats.StatsModule
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authAdapter auth.AuthPort, chatModule *chat.ChatModule, statsModule *stats.StatsModule) *Handlers {
	return &Handlers{
		authAdapter: authAdapter,
		chatModule:  chatModule,
		statsModule: statsModule,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Email and password are required",
		})
	}

	resp, err := h.authAdapter.Register(c.UserContext(), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		FullName: req.FullName,
	})
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{
		ID:        resp.ID,
		Email:     resp.Email,
		Username:  resp.Username,
		FullName:  resp.FullName,
		Role:      domain.RoleUser,
		CreatedAt: resp.CreatedAt,
	})
}

// Login handles user login and issues a session token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Email and password are required",
		})
	}

	resp, err := h.authAdapter.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
		Role:        resp.Role,
	})
}

// Logout revokes the caller's session. The token was already validated
// by the auth middleware.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	token, ok := c.Locals(TokenContextKey).(string)
	if !ok || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	if err := h.authAdapter.Logout(c.UserContext(), token); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Session not found or already revoked",
			})
		}
		log.Printf("[api] Logout error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user's profile.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	user, err := h.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		log.Printf("[api] GetUser error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve user profile",
		})
	}

	return c.Status(fiber.StatusOK).JSON(UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FullName:  user.FullName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

// ListRooms returns all rooms.
func (h *Handlers) ListRooms(c *fiber.Ctx) error {
	rooms, err := h.chatModule.Service().ListRooms(c.UserContext())
	if err != nil {
		log.Printf("[api] ListRooms error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list rooms",
		})
	}

	resp := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, RoomResponse{
			ID:          room.ID,
			Name:        room.Name,
			Description: room.Description,
			OwnerID:     room.OwnerID,
			CreatedAt:   room.CreatedAt,
		})
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// CreateRoom creates a new room owned by the caller.
func (h *Handlers) CreateRoom(c *fiber.Ctx) error {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	room, err := h.chatModule.Service().CreateRoom(c.UserContext(), req.Name, req.Description, claims)
	if err != nil {
		return h.handleChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RoomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		OwnerID:     room.OwnerID,
		CreatedAt:   room.CreatedAt,
	})
}

// GetRoom returns a single room.
func (h *Handlers) GetRoom(c *fiber.Ctx) error {
	room, err := h.chatModule.Service().GetRoom(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleChatError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(RoomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		OwnerID:     room.OwnerID,
		CreatedAt:   room.CreatedAt,
	})
}

// DeleteRoom removes a room the caller is allowed to manage.
func (h *Handlers) DeleteRoom(c *fiber.Ctx) error {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	if err := h.chatModule.Service().DeleteRoom(c.UserContext(), c.Params("id"), claims); err != nil {
		return h.handleChatError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetRoomMessages returns the most recent messages for a room,
// ascending by sequence.
func (h *Handlers) GetRoomMessages(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", chat.DefaultHistoryLimit)

	messages, err := h.chatModule.Service().History(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return h.handleChatError(c, err)
	}

	frames := make([]chat.MessageFrame, 0, len(messages))
	for _, msg := range messages {
		frames = append(frames, chat.NewMessageFrame(msg))
	}
	return c.Status(fiber.StatusOK).JSON(frames)
}

// GetRoomStats returns the activity counters for a room.
func (h *Handlers) GetRoomStats(c *fiber.Ctx) error {
	roomID := c.Params("id")

	if _, err := h.chatModule.Service().GetRoom(c.UserContext(), roomID); err != nil {
		return h.handleChatError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(RoomStatsResponse{
		RoomID: roomID,
		Stats:  h.statsModule.RoomStats(roomID),
	})
}

// handleChatError maps room and message errors to HTTP responses.
func (h *Handlers) handleChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, chat.ErrRoomNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	case errors.Is(err, chat.ErrRoomExists):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "Room with this name already exists",
		})
	case errors.Is(err, chat.ErrRoomNameEmpty), errors.Is(err, chat.ErrRoomNameTooLong):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
	case errors.Is(err, chat.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "You do not have permission to manage this room",
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// handleAuthError maps auth service errors to HTTP responses. Errors
// cross the request-reply bus as strings, so matching is by message.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid email or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid email or password",
		})
	case strings.Contains(errStr, "user with this email already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User with this email already exists",
		})
	case strings.Contains(errStr, "invalid email format"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid email format",
		})
	case strings.Contains(errStr, "password must be at least"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Password must be at least 8 characters",
		})
	case strings.Contains(errStr, "password must be at most"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Password must be at most 72 characters",
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
