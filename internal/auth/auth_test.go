package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const secret = "test-secret"

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(h, "hunter22") {
		t.Error("correct password rejected")
	}
	if CheckPassword(h, "hunter23") {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("user-1", secret, 30*time.Minute)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	c, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UserID() != "user-1" {
		t.Errorf("got uid %q", c.UserID())
	}
}

func TestTokenRejected(t *testing.T) {
	expired, _ := MakeToken("user-1", secret, -time.Minute)
	wrongKey, _ := MakeToken("user-1", "other", time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	noSubject, _ := MakeToken("", secret, time.Minute)

	tests := []struct {
		name string
		raw  string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"alg none", none},
		{"no subject", noSubject},
		{"garbage", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.raw, secret); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestResetToken(t *testing.T) {
	raw, hash, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(raw) != 64 || raw == hash {
		t.Fatalf("unexpected token %q / %q", raw, hash)
	}
	if HashResetToken(raw) != hash {
		t.Error("hash mismatch")
	}
	raw2, _, _ := GenerateResetToken()
	if raw == raw2 {
		t.Error("tokens should be random")
	}
}
