package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	sec := "secret123"
	sid := "abc"
	exp := time.Now().Add(5 * time.Minute).Unix()

	tok := GenerateSessionToken(sec, sid, exp)

	gotSID, gotExp, err := ValidateSessionToken(sec, tok, sid, time.Now(), 60)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if gotSID != sid || gotExp != exp {
		t.Fatalf("mismatch: %s/%d", gotSID, gotExp)
	}
}

func TestBadSignature(t *testing.T) {
	sec := "secret123"
	sid := "abc"
	exp := time.Now().Add(5 * time.Minute).Unix()
	tok := GenerateSessionToken(sec, sid, exp)

	// flip a char
	if tok[0] == 'A' {
		tok = "B" + tok[1:]
	} else {
		tok = "A" + tok[1:]
	}

	if _, _, err := ValidateSessionToken(sec, tok, sid, time.Now(), 60); err == nil {
		t.Fatalf("expected error for bad token")
	}
}

func TestExpiredToken(t *testing.T) {
	sec := "secret123"
	sid := "abc"
	exp := time.Now().Add(-10 * time.Minute).Unix()
	tok := GenerateSessionToken(sec, sid, exp)

	if _, _, err := ValidateSessionToken(sec, tok, sid, time.Now(), 60); err != ErrTokenExp {
		t.Fatalf("expected ErrTokenExp, got %v", err)
	}
}

func TestSessionMismatch(t *testing.T) {
	sec := "secret123"
	exp := time.Now().Add(5 * time.Minute).Unix()
	tok := GenerateSessionToken(sec, "abc", exp)

	if _, _, err := ValidateSessionToken(sec, tok, "other", time.Now(), 60); err != ErrTokenSID {
		t.Fatalf("expected ErrTokenSID, got %v", err)
	}
}
