package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLoginStateTTL bounds how long a user may sit on the provider's
// login page before the round trip is rejected.
const DefaultLoginStateTTL = 10 * time.Minute

// LoginStateClaims travel in the short-lived cookie set by /login and read
// back by /callback.
type LoginStateClaims struct {
	jwt.RegisteredClaims

	// State is echoed by the provider in the callback query.
	State string `json:"state"`

	// Nonce must match the nonce claim of the returned ID token.
	Nonce string `json:"nonce"`

	// ReturnTo is the local path to send the user to after login.
	ReturnTo string `json:"return_to,omitempty"`
}

// NewLoginStateClaims builds claims valid for ttl from now.
func NewLoginStateClaims(issuer, audience, state, nonce, returnTo string, ttl time.Duration, now time.Time) LoginStateClaims {
	return LoginStateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		State:    state,
		Nonce:    nonce,
		ReturnTo: returnTo,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *LoginStateClaims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks that expected is among the token audiences.
func (c *LoginStateClaims) ValidateAudience(expected string) error {
	if expected == "" {
		return nil
	}
	if slices.Contains(c.Audience, expected) {
		return nil
	}
	return ErrAudience
}

// ValidateExpiryWithLeeway checks exp and nbf allowing for clock skew.
func (c *LoginStateClaims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
