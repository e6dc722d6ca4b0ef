package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/imramesh222/chat-application/domain/user"
)

// WebSocket close codes (RFC 6455) used by the session state machine.
// Clients distinguish policy violations (retry with a new token) from
// normal closure and server errors.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

// DefaultFetchTimeout bounds the history read during replay.
const DefaultFetchTimeout = 5 * time.Second

// SessionState is the connection lifecycle state. Transitions only move
// forward; there is no re-entry to an earlier state.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateReplaying
	StateLive
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReplaying:
		return "replaying"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport is the connection the session reads from and writes to.
// WriteJSON and Close must be safe for concurrent use: the session
// writes from its delivery goroutine and its read loop.
type Transport interface {
	// ReadText blocks for the next inbound text frame.
	ReadText() (string, error)
	// WriteJSON sends one JSON object as a text frame.
	WriteJSON(v any) error
	// Close sends a close frame with the code and reason and closes the
	// underlying connection.
	Close(code int, reason string) error
}

// SessionAuthorizer resolves a bearer token to claims, or fails for
// missing, malformed, expired, or revoked tokens.
type SessionAuthorizer interface {
	Authorize(ctx context.Context, token string) (*user.Claims, error)
}

// PresenceNotifier observes room membership changes. Optional.
type PresenceNotifier interface {
	UserJoined(roomID, userID string)
	UserLeft(roomID, userID string)
}

// RoomSessionDeps carries the collaborators a RoomSession needs.
type RoomSessionDeps struct {
	Authorizer   SessionAuthorizer
	Rooms        RoomStore
	Messages     MessageStore
	Registry     *ConnectionRegistry
	Engine       *BroadcastEngine
	Notifier     PresenceNotifier
	HistoryLimit int
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

// RoomSession drives one connection through
// connect → authenticate → replay → live → closed.
type RoomSession struct {
	transport    Transport
	authorizer   SessionAuthorizer
	rooms        RoomStore
	messages     MessageStore
	registry     *ConnectionRegistry
	engine       *BroadcastEngine
	notifier     PresenceNotifier
	historyLimit int
	fetchTimeout time.Duration
	logger       *slog.Logger

	state     atomic.Int32
	sub       *Subscription
	closeOnce sync.Once
}

// NewRoomSession creates a session for the transport.
func NewRoomSession(transport Transport, deps RoomSessionDeps) *RoomSession {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = DefaultHistoryLimit
	}
	if deps.FetchTimeout <= 0 {
		deps.FetchTimeout = DefaultFetchTimeout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &RoomSession{
		transport:    transport,
		authorizer:   deps.Authorizer,
		rooms:        deps.Rooms,
		messages:     deps.Messages,
		registry:     deps.Registry,
		engine:       deps.Engine,
		notifier:     deps.Notifier,
		historyLimit: deps.HistoryLimit,
		fetchTimeout: deps.FetchTimeout,
		logger:       deps.Logger,
	}
}

// State returns the current lifecycle state.
func (s *RoomSession) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *RoomSession) setState(next SessionState) {
	s.state.Store(int32(next))
	s.logger.Debug("session state", "state", next.String())
}

// Run drives the session until the transport closes or errors. It
// returns once the session is fully closed and unsubscribed.
func (s *RoomSession) Run(ctx context.Context, roomID, token string) {
	s.setState(StateAuthenticating)

	if token == "" {
		s.close(ClosePolicyViolation, "missing token")
		return
	}

	claims, err := s.authorizer.Authorize(ctx, token)
	if err != nil {
		s.logger.Info("connection refused", "roomID", roomID, "error", err)
		s.close(ClosePolicyViolation, "invalid or expired token")
		return
	}

	exists, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		s.logger.Error("room lookup failed", "roomID", roomID, "error", err)
		s.close(CloseInternalError, "room lookup failed")
		return
	}
	if !exists {
		s.close(ClosePolicyViolation, "unknown room")
		return
	}

	s.setState(StateReplaying)

	// Subscribe before fetching history. The subscription's lower bound
	// guarantees every persisted message below it is visible to the
	// fetch and every message at or above it arrives on the live
	// channel, so nothing is lost or duplicated between the two.
	s.sub = s.registry.Subscribe(roomID, claims.UserID)

	if err := s.replay(ctx, roomID); err != nil {
		if errors.Is(err, ErrHistoryFetchFailed) {
			s.close(CloseInternalError, "history unavailable")
		} else {
			s.close(CloseNormal, "")
		}
		return
	}

	s.setState(StateLive)
	s.logger.Info("session live", "roomID", roomID, "userID", claims.UserID, "from", s.sub.FromSequence())

	if s.notifier != nil {
		s.notifier.UserJoined(roomID, claims.UserID)
		defer s.notifier.UserLeft(roomID, claims.UserID)
	}

	done := make(chan struct{})
	go s.writeLoop(done)

	s.readLoop(ctx, roomID, claims)
	s.close(CloseNormal, "")
	<-done
}

// replay sends persisted history below the subscription's lower bound,
// ascending by sequence.
func (s *RoomSession) replay(ctx context.Context, roomID string) error {
	hctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	history, err := s.messages.RecentBefore(hctx, roomID, s.sub.FromSequence(), s.historyLimit)
	cancel()
	if err != nil {
		s.logger.Error("history fetch failed", "roomID", roomID, "error", err)
		return ErrHistoryFetchFailed
	}

	for _, msg := range history {
		if err := s.transport.WriteJSON(NewMessageFrame(msg)); err != nil {
			return err
		}
	}
	return nil
}

// writeLoop forwards live deliveries to the transport until the
// subscription closes or a write fails.
func (s *RoomSession) writeLoop(done chan struct{}) {
	defer close(done)

	for msg := range s.sub.Messages() {
		if err := s.transport.WriteJSON(NewMessageFrame(msg)); err != nil {
			s.close(CloseNormal, "")
			return
		}
	}

	// Channel closed without a transport error: the subscription was
	// dropped (overflow) or the registry is shutting down.
	s.close(CloseGoingAway, "server closing")
}

// readLoop accepts inbound frames and publishes them until the
// transport closes or errors.
func (s *RoomSession) readLoop(ctx context.Context, roomID string, claims *user.Claims) {
	for {
		content, err := s.transport.ReadText()
		if err != nil {
			return
		}

		if _, err := s.engine.Publish(ctx, roomID, claims, content); err != nil {
			s.logger.Warn("publish failed", "roomID", roomID, "userID", claims.UserID, "error", err)
			_ = s.transport.WriteJSON(ErrorFrame{Error: publishErrorMessage(err)})
		}
	}
}

func publishErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMessageEmpty):
		return "message content is required"
	case errors.Is(err, ErrMessageTooLong):
		return "message too long"
	case errors.Is(err, ErrPersistFailed):
		return "message could not be saved, try again"
	default:
		return "failed to send message"
	}
}

// close drives the session to Closed exactly once: unsubscribe, then
// close the transport.
func (s *RoomSession) close(code int, reason string) {
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		if s.sub != nil {
			s.sub.Close()
		}
		_ = s.transport.Close(code, reason)
	})
}
