package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	domain "github.com/imramesh222/chat-application/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// validatePassword enforces the length bounds Register accepts. The
// upper bound is bcrypt's 72-byte input limit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}

// AuthService handles registration, login, logout, and token validation.
type AuthService struct {
	repo     UserStore
	hasher   *PasswordHasher
	jwt      *JWTManager
	sessions *SessionStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo UserStore, hasher *PasswordHasher, jwt *JWTManager, sessions *SessionStore) *AuthService {
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		jwt:      jwt,
		sessions: sessions,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, email, password, username, fullName string) (*domain.User, error) {
	// Validate email using standard library
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if err := validatePassword(password); err != nil {
		return nil, err
	}

	// Check if user already exists
	exists, err := s.repo.EmailTaken(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	// Hash password
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if fullName == "" {
		fullName = username
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Username:     username,
		FullName:     fullName,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and creates a session bound to a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(user.ID, user.Email, user.FullName, domain.ParseRole(string(user.Role)), s.jwt.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Logout revokes the session for the token.
func (s *AuthService) Logout(_ context.Context, token string) error {
	return s.sessions.Revoke(token)
}

// ValidateSession verifies the token signature and expiry, then requires
// a live session for it. Revoked or expired sessions fail the check even
// if the token itself still verifies.
func (s *AuthService) ValidateSession(_ context.Context, token string) (*domain.Claims, error) {
	subject, err := s.jwt.Verify(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Lookup(token)
	if err != nil {
		return nil, err
	}

	if session.Subject != subject {
		return nil, ErrInvalidToken
	}

	return &domain.Claims{
		UserID:      session.Subject,
		Email:       session.Email,
		DisplayName: session.DisplayName,
		Role:        session.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}
