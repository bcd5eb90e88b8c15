// Package auth authenticates requests for the locale service.
//
// AUTHENTICATION FLOW:
//  1. A user signs in (GitHub OAuth, or local password for the bootstrap admin)
//  2. The server issues a signed JWT whose "sub" claim is the internal user ID
//  3. The JWT travels in the HttpOnly "token" cookie
//  4. OptionalAuth/RequireAuth validate the cookie and put the user ID in the
//     request context, which is all the locale resolver needs to know
//  5. OptionalAuth reissues the cookie once a token is past half its life,
//     so an active user is not signed out mid-session
//
// The token is stateless: validating it needs only the HMAC secret, so the
// per-request locale lookup adds exactly one database read (the preference).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "userlocale"

	// SessionTTL is how long an issued session token stays valid.
	SessionTTL = 12 * time.Hour
)

// Validation failures. Both mean the caller is treated as signed out.
var (
	ErrTokenExpired = errors.New("auth: session token expired")
	ErrInvalidToken = errors.New("auth: invalid session token")
)

// TokenService issues and checks session tokens signed with HS256.
type TokenService struct {
	key []byte
	now func() time.Time
}

// NewTokenService signs with secret, which must be at least 16 characters.
// Production deployments should use 32 or more random bytes.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{key: []byte(secret), now: time.Now}, nil
}

// Session is a validated token.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

// Stale reports whether the session is past half its lifetime and should
// be reissued.
func (s Session) Stale(now time.Time) bool {
	return s.ExpiresAt.Sub(now) < SessionTTL/2
}

// Generate signs a session token for userID valid for SessionTTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, SessionTTL)
}

// GenerateWithDuration signs a token with a custom lifetime. A negative
// duration gives an already expired token.
func (s *TokenService) GenerateWithDuration(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: cannot issue a token without a subject")
	}
	issued := s.now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
	}).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: signing token for %s: %w", userID, err)
	}
	return signed, nil
}

// Validate returns the user ID of a valid token.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	sess, err := s.Parse(tokenStr)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

// Parse verifies tokenStr and returns its session. It fails with
// ErrTokenExpired or an error wrapping ErrInvalidToken.
//
// The parser is pinned to HS256 so a token claiming alg "none" or an
// asymmetric algorithm is rejected before the key is consulted.
func (s *TokenService) Parse(tokenStr string) (Session, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &rc,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Session{}, ErrTokenExpired
	case err != nil:
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case rc.Subject == "" || rc.ExpiresAt == nil:
		return Session{}, ErrInvalidToken
	}
	return Session{UserID: rc.Subject, ExpiresAt: rc.ExpiresAt.Time}, nil
}
