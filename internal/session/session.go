// Package session issues and verifies capability-scoped signing tokens: a
// player's authority key authorizes an ephemeral session key to sign gameplay
// instructions on its behalf, scoped to one program and a bounded lifetime.
package session

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// Claims is the verified content of a session token.
type Claims struct {
	Authority  string // hex compressed public key of the delegating player
	SessionKey string // hex compressed public key allowed to sign
	Program    string // program the delegation is scoped to
	ExpiresAt  int64
}

// Service mints and verifies session tokens with a shared signing secret.
type Service struct {
	secret  []byte
	issuer  string
	program string
}

func NewService(secret []byte, issuer, program string) *Service {
	return &Service{secret: secret, issuer: issuer, program: program}
}

// Issue creates a token allowing sessionKey to sign instructions for
// authority's account until the TTL elapses.
func (s *Service) Issue(authority, sessionKey []byte, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("session service has no signing secret")
	}
	if len(authority) == 0 || len(sessionKey) == 0 {
		return "", fmt.Errorf("authority and session key are required")
	}

	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  hex.EncodeToString(authority),
		"skey": hex.EncodeToString(sessionKey),
		"prg":  s.program,
		"exp":  time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses a token, checks its signature, expiry and program scope, and
// returns the delegation claims.
func (s *Service) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("invalid session token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, fmt.Errorf("invalid session token claims")
	}

	claims := Claims{}
	if v, ok := mapClaims["sub"].(string); ok {
		claims.Authority = v
	}
	if v, ok := mapClaims["skey"].(string); ok {
		claims.SessionKey = v
	}
	if v, ok := mapClaims["prg"].(string); ok {
		claims.Program = v
	}
	if v, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = int64(v)
	}

	if claims.Program != s.program {
		return Claims{}, fmt.Errorf("session token scoped to program %q, not %q", claims.Program, s.program)
	}
	if claims.Authority == "" || claims.SessionKey == "" {
		return Claims{}, fmt.Errorf("session token missing delegation claims")
	}
	return claims, nil
}
