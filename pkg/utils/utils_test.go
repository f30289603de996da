package utils

import (
	"strconv"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	password := "secret"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !CheckPassword(password, hash) {
		t.Errorf("Expected password check to pass")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Errorf("Expected password check to fail")
	}
}

func TestJWT(t *testing.T) {
	secret := "supersecret"
	userID := "123"
	role := "expert"

	token, err := GenerateToken(userID, role, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected UserID %s, got %s", userID, claims.UserID)
	}
	if claims.Role != role {
		t.Errorf("Expected Role %s, got %s", role, claims.Role)
	}

	_, err = ValidateToken(token, "wrongsecret")
	if err == nil {
		t.Errorf("Expected error with wrong secret")
	}
}

func TestTokenPairKeepsAccessAndRefreshApart(t *testing.T) {
	secret := "supersecret"

	pair, err := GenerateTokenPair("7", "user", secret, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := ValidateToken(pair.Refresh, secret); err == nil {
		t.Errorf("Expected refresh token to be rejected as access token")
	}
	if _, err := ValidateRefreshToken(pair.Access, secret); err == nil {
		t.Errorf("Expected access token to be rejected as refresh token")
	}

	claims, err := ValidateRefreshToken(pair.Refresh, secret)
	if err != nil {
		t.Fatalf("Expected refresh token to validate, got %v", err)
	}
	if claims.UserID != "7" || claims.Role != "user" {
		t.Errorf("Unexpected refresh claims %+v", claims)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	token, err := issueToken("1", "user", TokenTypeAccess, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := ValidateToken(token, "secret"); err == nil {
		t.Errorf("Expected expired token to fail validation")
	}
}

func TestGenerateOTPCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTPCode()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("Expected numeric code, got %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("Code %d out of range", n)
		}
	}
}
