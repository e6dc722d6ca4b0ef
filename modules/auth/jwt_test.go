package auth

import (
	"errors"
	"testing"
	"time"
)

func testJWTManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		SecretKey: "test-secret-key",
		Issuer:    "test-issuer",
		TokenTTL:  time.Hour,
	})
}

func TestIssueAndVerify(t *testing.T) {
	manager := testJWTManager()

	token, err := manager.Issue("user-123", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	subject, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if subject != "user-123" {
		t.Errorf("Verify() subject = %q, want %q", subject, "user-123")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	manager := testJWTManager()

	token, err := manager.Issue("user-123", -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := manager.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() on expired token error = %v, want %v", err, ErrExpiredToken)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	manager := testJWTManager()
	other := NewJWTManager(JWTConfig{
		SecretKey: "a-different-secret",
		Issuer:    "test-issuer",
		TokenTTL:  time.Hour,
	})

	token, err := manager.Issue("user-123", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() with wrong secret error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	manager := testJWTManager()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "not a JWT", token: "not-a-token"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%q) error = %v, want %v", tt.token, err, ErrInvalidToken)
			}
		})
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	manager := testJWTManager()

	token, err := manager.Issue("user-123", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	// Flip a character in the payload segment.
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}

	if _, err := manager.Verify(string(tampered)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() on tampered token error = %v, want %v", err, ErrInvalidToken)
	}
}
