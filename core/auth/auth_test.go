package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("five six seven eight")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		t.Fatalf("not a bcrypt hash: %v", err)
	}
	if !CheckPasswordHash("five six seven eight", hash) {
		t.Fatal("correct passphrase rejected")
	}
	if CheckPasswordHash("one two", hash) {
		t.Fatal("wrong passphrase accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	iss := NewIssuer("secret")
	token, err := iss.GenerateToken("phone")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := iss.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Device != "phone" || claims.Subject != "dancedeck" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestTokenRejected(t *testing.T) {
	iss := NewIssuer("secret")
	token, err := iss.GenerateToken("phone")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewIssuer("other").ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret err = %v", err)
	}

	later := NewIssuer("secret")
	later.now = func() time.Time { return time.Now().Add(TokenTTL + time.Hour) }
	if _, err := later.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired err = %v", err)
	}
}
