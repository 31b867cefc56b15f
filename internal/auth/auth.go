// Package auth turns the bearer credential of a request into the calling user. Tokens are issued
// by the hosted identity service as HS256 JWTs whose subject is the user id.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for credentials that are present but cannot be trusted.
var ErrInvalidToken = errors.New("invalid bearer token")

// Caller identifies the user on whose behalf a request runs. The zero value is the anonymous
// caller.
type Caller struct {
	Id    string
	Email string
}

// Anonymous reports whether no credential was supplied.
func (c Caller) Anonymous() bool {
	return c.Id == ""
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens with the identity provider's shared secret.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier creates a verifier for the specified secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), leeway: 30 * time.Second}
}

// CallerFromHeader inspects the value of an Authorization header. An empty header yields the
// anonymous caller. Anything else must be a valid "Bearer <token>".
func (v *Verifier) CallerFromHeader(header string) (Caller, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Caller{}, nil
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return Caller{}, fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return v.Verify(strings.TrimSpace(token))
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (Caller, error) {
	if len(v.secret) == 0 {
		return Caller{}, fmt.Errorf("%w: no secret configured", ErrInvalidToken)
	}
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(v.leeway))
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return Caller{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Caller{Id: c.Subject, Email: c.Email}, nil
}

// IssueToken signs a token for the specified user. The service itself never issues tokens; this
// exists for development setups and tests that have no identity provider at hand.
func IssueToken(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}
