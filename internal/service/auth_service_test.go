package service

import (
	"testing"
	"time"

	"github.com/voxscholar/voxscholar/internal/config"
)

func testAuthService() *AuthService {
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
	return NewAuthService(cfg, nil)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testAuthService()

	token, err := svc.GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Subject != "42" {
		t.Errorf("expected subject \"42\", got %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := testAuthService()
	token, err := svc.GenerateToken(1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewAuthService(&config.Config{JWTSecret: "different", JWTExpiry: time.Hour}, nil)
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService()
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("malformed token must not validate")
	}
}

func TestHashPassword(t *testing.T) {
	svc := testAuthService()
	hash, err := svc.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" || hash == "" {
		t.Errorf("unexpected hash %q", hash)
	}
}
