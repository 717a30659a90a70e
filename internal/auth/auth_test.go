package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"timetracker/internal/auth"
)

func TestIssueAndParse(t *testing.T) {
	tokens, err := auth.NewTokens("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}

	token, expires, err := tokens.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expiry %v is not in the future", expires)
	}

	id, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id != 42 {
		t.Fatalf("Parse = %d, want 42", id)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tokens, _ := auth.NewTokens("secret", time.Hour)
	tokens.WithClock(func() time.Time { return issuedAt })

	token, _, err := tokens.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tokens.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	if _, err := tokens.Parse(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("Parse expired error = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	mine, _ := auth.NewTokens("secret", time.Hour)
	theirs, _ := auth.NewTokens("other-secret", time.Hour)

	token, _, _ := theirs.Issue(1)
	if _, err := mine.Parse(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("Parse foreign token error = %v, want ErrInvalidToken", err)
	}
	if _, err := mine.Parse("not-a-token"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("Parse garbage error = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	tokens, _ := auth.NewTokens("secret", time.Hour)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := tokens.Parse(raw); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("Parse none-signed error = %v, want ErrInvalidToken", err)
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := auth.NewTokens("", time.Hour); err == nil {
		t.Fatal("NewTokens accepted an empty secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash equals the plain password")
	}
	if err := auth.CheckPassword(hash, "hunter2"); err != nil {
		t.Fatalf("CheckPassword(correct): %v", err)
	}
	if err := auth.CheckPassword(hash, "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("CheckPassword(wrong) error = %v", err)
	}
	if _, err := auth.HashPassword(""); err == nil {
		t.Fatal("HashPassword accepted an empty password")
	}
}
