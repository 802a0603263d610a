// Package auth provides password hashing, JWT issuing and the HTTP
// middleware that enforces a Bearer token on protected routes.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /auth/signup or /auth/login with {email, password}
//  2. The service checks the credentials against users.json
//  3. A signed JWT whose subject is the user's email is returned in the body
//  4. The client sends it back as "Authorization: Bearer <token>"
//  5. RequireAuth validates it and puts the subject in the request context
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"ana@example.com","iss":"organization-app","iat":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server verifies a token with the secret alone, no file lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written into every token and required on validation.
const Issuer = "organization-app"

// MinSecretLength is the shortest JWT secret NewTokenService accepts.
const MinSecretLength = 16

// ErrTokenExpired is returned by Validate for a token past its exp claim.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService handles JWT creation and validation.
//
// The secret is loaded once at startup. Changing it invalidates every token
// issued before the change; there is no other revocation mechanism.
type TokenService struct {
	secret []byte

	// ttl is the token lifetime. Zero issues tokens without an exp claim.
	ttl time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// Example secret: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if ttl < 0 {
		return nil, errors.New("auth: token TTL must not be negative")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Generate creates and signs a token for subject (the user's email) using
// the configured lifetime.
func (s *TokenService) Generate(subject string) (string, error) {
	return s.GenerateWithDuration(subject, s.ttl)
}

// GenerateWithDuration creates a token with an explicit lifetime. d == 0
// omits the exp claim; a negative d yields an already expired token, which
// the tests rely on.
func (s *TokenService) GenerateWithDuration(subject string, d time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: token subject must not be empty")
	}

	now := time.Now()
	c := jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
		Issuer:   Issuer,
	}
	if d != 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(d))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns its subject.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - Algorithm is HS256 (prevents the "alg: none" confusion attack)
//   - Issuer is "organization-app"
//   - exp, when present, is in the future; when the service is configured
//     with a TTL the claim is mandatory
func (s *TokenService) Validate(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithIssuedAt(),
	}
	if s.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}
