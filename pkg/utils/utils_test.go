package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

func TestGetenvFallbacks(t *testing.T) {
	t.Setenv("UTILS_INT", "nope")
	t.Setenv("UTILS_DUR", "750ms")
	t.Setenv("UTILS_DEC", " 0.125 ")
	t.Setenv("UTILS_BOOL", "false")

	if got := GetenvInt("UTILS_INT", 3); got != 3 {
		t.Errorf("GetenvInt = %d, want fallback 3", got)
	}
	if got := GetenvDuration("UTILS_DUR", time.Second); got != 750*time.Millisecond {
		t.Errorf("GetenvDuration = %s", got)
	}
	if got := GetenvDecimal("UTILS_DEC", decimal.Zero); !got.Equal(decimal.RequireFromString("0.125")) {
		t.Errorf("GetenvDecimal = %s", got)
	}
	if got := GetenvBool("UTILS_BOOL", true); got {
		t.Error("GetenvBool = true, want false")
	}
	if got := Getenv("UTILS_UNSET", "x"); got != "x" {
		t.Errorf("Getenv = %q", got)
	}
}

func TestTokenIssuer(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Fatal("empty secret accepted")
	}

	issuer, _ := NewTokenIssuer("secret", time.Hour)
	token, expiresAt, err := issuer.GenerateAccessToken(42, "maya", "cashier")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt %s is not in the future", expiresAt)
	}
	claims, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "maya" || claims.Role != "cashier" {
		t.Errorf("claims = %+v", claims)
	}

	expired, _ := NewTokenIssuer("secret", time.Nanosecond)
	old, _, _ := expired.GenerateAccessToken(1, "x", "admin")
	time.Sleep(time.Millisecond)
	if _, err := issuer.ValidateToken(old); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expired token: %v", err)
	}
}

func TestNewNullString(t *testing.T) {
	if NewNullString("   ") != nil {
		t.Error("blank string should be nil")
	}
	if s := NewNullString(" Block 4 "); s == nil || *s != "Block 4" {
		t.Errorf("NewNullString = %v", s)
	}
}
