package auth_test

import (
	"testing"
	"time"

	"github.com/mercato/customer-accounts/pkg/auth"
)

const testSecret = "test-secret"

func TestSessionToken_RoundTrip(t *testing.T) {
	token, err := auth.NewSessionToken(42, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken failed: %v", err)
	}

	claims, err := auth.Parse(token, testSecret)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if claims.Sub != 42 {
		t.Fatalf("Expected sub 42, got %d", claims.Sub)
	}
}

func TestSessionToken_Expired(t *testing.T) {
	token, err := auth.NewSessionToken(42, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("NewSessionToken failed: %v", err)
	}

	if _, err := auth.Parse(token, testSecret); err == nil {
		t.Fatal("Expected error for expired token")
	}
}

func TestSessionToken_WrongSecret(t *testing.T) {
	token, err := auth.NewSessionToken(42, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken failed: %v", err)
	}

	if _, err := auth.Parse(token, "other-secret"); err == nil {
		t.Fatal("Expected error for wrong secret")
	}
}
