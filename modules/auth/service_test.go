package auth

import (
	"context"
	"net/mail"
	"strings"
	"testing"

	domain "github.com/imramesh222/chat-application/domain/user"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserStore is an in-test UserStore with pluggable behavior.
type fakeUserStore struct {
	createFunc     func(ctx context.Context, user *domain.User) error
	getFunc        func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	emailTakenFunc func(ctx context.Context, email string) (bool, error)
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	return f.createFunc(ctx, user)
}

func (f *fakeUserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	return f.getFunc(ctx, id)
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return f.getByEmailFunc(ctx, email)
}

func (f *fakeUserStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	return f.emailTakenFunc(ctx, email)
}

type storeCtxKey struct{}

func TestRegisterStoresNewUser(t *testing.T) {
	var created *domain.User
	var seenValues []any
	store := &fakeUserStore{
		emailTakenFunc: func(ctx context.Context, _ string) (bool, error) {
			seenValues = append(seenValues, ctx.Value(storeCtxKey{}))
			return false, nil
		},
		createFunc: func(ctx context.Context, user *domain.User) error {
			seenValues = append(seenValues, ctx.Value(storeCtxKey{}))
			created = user
			return nil
		},
	}
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)
	service := NewAuthService(store, hasher, nil, nil)

	ctx := context.WithValue(context.Background(), storeCtxKey{}, "req-42")
	user, err := service.Register(ctx, "alice@example.com", "letmein-12345", "alice", "")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if created == nil {
		t.Fatal("Register() did not persist the user")
	}
	if created != user {
		t.Error("Register() returned a different user than it persisted")
	}
	if created.Role != domain.RoleUser {
		t.Errorf("new user role = %q, want %q", created.Role, domain.RoleUser)
	}
	if created.FullName != "alice" {
		t.Errorf("empty full name defaulted to %q, want username %q", created.FullName, "alice")
	}
	if created.PasswordHash == "letmein-12345" {
		t.Error("password stored in plaintext")
	}
	if !hasher.Verify("letmein-12345", created.PasswordHash) {
		t.Error("stored hash does not verify against the password")
	}
	for i, v := range seenValues {
		if v != "req-42" {
			t.Errorf("store call %d did not receive the caller's context", i)
		}
	}
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	var createCalls int
	store := &fakeUserStore{
		emailTakenFunc: func(_ context.Context, _ string) (bool, error) {
			return true, nil
		},
		createFunc: func(_ context.Context, _ *domain.User) error {
			createCalls++
			return nil
		},
	}
	service := NewAuthService(store, NewPasswordHasherWithCost(bcrypt.MinCost), nil, nil)

	_, err := service.Register(context.Background(), "taken@example.com", "letmein-12345", "bob", "Bob")
	if err != ErrUserExists {
		t.Fatalf("Register() with taken email error = %v, want %v", err, ErrUserExists)
	}
	if createCalls != 0 {
		t.Errorf("Create called %d times for a taken email, want 0", createCalls)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := &fakeUserStore{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, ErrUserNotFound
		},
	}
	service := NewAuthService(store, NewPasswordHasherWithCost(bcrypt.MinCost), nil, nil)

	_, err := service.Login(context.Background(), "nobody@example.com", "whatever-123")
	if err != ErrInvalidCredentials {
		t.Errorf("Login() with unknown email error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)
	hash, err := hasher.Hash("right-password")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	store := &fakeUserStore{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: "alice@example.com", PasswordHash: hash}, nil
		},
	}
	service := NewAuthService(store, hasher, nil, nil)

	_, err = service.Login(context.Background(), "alice@example.com", "wrong-password")
	if err != ErrInvalidCredentials {
		t.Errorf("Login() with wrong password error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestLoginCreatesSession(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)
	hash, err := hasher.Hash("right-password")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	store := &fakeUserStore{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{
				ID:           "user-1",
				Email:        "alice@example.com",
				PasswordHash: hash,
				FullName:     "Alice",
				Role:         domain.RoleBusiness,
			}, nil
		},
	}
	jwtManager := NewJWTManager(DefaultJWTConfig())
	sessions := NewSessionStore(jwtManager)
	service := NewAuthService(store, hasher, jwtManager, sessions)

	session, err := service.Login(context.Background(), "alice@example.com", "right-password")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if session.Token == "" {
		t.Error("Login() returned an empty token")
	}
	if session.Subject != "user-1" {
		t.Errorf("session subject = %q, want %q", session.Subject, "user-1")
	}
	if session.Role != domain.RoleBusiness {
		t.Errorf("session role = %q, want %q", session.Role, domain.RoleBusiness)
	}

	claims, err := service.ValidateSession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("ValidateSession() after login error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("claims user = %q, want %q", claims.UserID, "user-1")
	}
}

func TestEmailValidation(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{
			name:  "valid email",
			email: "user@example.com",
			want:  true,
		},
		{
			name:  "valid email with subdomain",
			email: "user@mail.example.com",
			want:  true,
		},
		{
			name:  "valid email with plus tag",
			email: "user+chat@example.com",
			want:  true,
		},
		{
			name:  "missing @",
			email: "userexample.com",
			want:  false,
		},
		{
			name:  "missing domain",
			email: "user@",
			want:  false,
		},
		{
			name:  "missing local part",
			email: "@example.com",
			want:  false,
		},
		{
			name:  "empty string",
			email: "",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mail.ParseAddress(tt.email)
			got := err == nil
			if got != tt.want {
				t.Errorf("mail.ParseAddress(%q) valid = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestPasswordLengthBounds(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "8 characters exactly",
			password: "12345678",
		},
		{
			name:     "72 characters exactly",
			password: strings.Repeat("a", 72),
		},
		{
			name:     "7 characters",
			password: "1234567",
			wantErr:  ErrWeakPassword,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  ErrWeakPassword,
		},
		{
			name:     "73 characters",
			password: strings.Repeat("a", 73),
			wantErr:  ErrPasswordTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validatePassword(tt.password)
			if got != tt.wantErr {
				t.Errorf("validatePassword(%d chars) = %v, want %v", len(tt.password), got, tt.wantErr)
			}
		})
	}
}
