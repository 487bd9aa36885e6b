package session

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService([]byte("test-secret"), "flappy-test", "flappy")
	authority := []byte{1, 2, 3}
	sessionKey := []byte{4, 5, 6}

	token, err := svc.Issue(authority, sessionKey, time.Hour)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if claims.Authority != hex.EncodeToString(authority) {
		t.Errorf("authority = %s", claims.Authority)
	}
	if claims.SessionKey != hex.EncodeToString(sessionKey) {
		t.Errorf("sessionKey = %s", claims.SessionKey)
	}
	if claims.Program != "flappy" {
		t.Errorf("program = %s", claims.Program)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewService([]byte("secret-a"), "flappy-test", "flappy")
	verifier := NewService([]byte("secret-b"), "flappy-test", "flappy")

	token, err := issuer.Issue([]byte{1}, []byte{2}, time.Hour)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService([]byte("test-secret"), "flappy-test", "flappy")
	token, err := svc.Issue([]byte{1}, []byte{2}, -time.Minute)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if _, err := svc.Verify(token); err == nil {
		t.Fatalf("expected verification failure for expired token")
	}
}

func TestVerifyRejectsWrongProgramScope(t *testing.T) {
	issuer := NewService([]byte("test-secret"), "flappy-test", "other-program")
	verifier := NewService([]byte("test-secret"), "flappy-test", "flappy")

	token, err := issuer.Issue([]byte{1}, []byte{2}, time.Hour)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	_, err = verifier.Verify(token)
	if err == nil || !strings.Contains(err.Error(), "scoped to program") {
		t.Fatalf("err = %v, want program scope rejection", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewService([]byte("test-secret"), "flappy-test", "flappy")
	if _, err := svc.Verify("not.a.token"); err == nil {
		t.Fatalf("expected verification failure for malformed token")
	}
}
