package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWeakKey     = errors.New("jwtx: HS256 key must be at least 32 bytes")
)

// StateSigner signs and verifies login state cookies with HS256. The key
// never leaves the process, so a symmetric algorithm is enough.
type StateSigner struct {
	key      []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewStateSigner creates a signer bound to issuer/audience.
func NewStateSigner(key []byte, issuer, audience string) (*StateSigner, error) {
	if len(key) < 32 {
		return nil, ErrWeakKey
	}
	return &StateSigner{
		key:      key,
		issuer:   issuer,
		audience: audience,
		leeway:   30 * time.Second,
	}, nil
}

// Issuer returns the issuer stamped into signed claims.
func (s *StateSigner) Issuer() string { return s.issuer }

// Audience returns the audience stamped into signed claims.
func (s *StateSigner) Audience() string { return s.audience }

// Sign returns the compact JWS for c.
func (s *StateSigner) Sign(c LoginStateClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience and expiry and returns the claims.
func (s *StateSigner) Verify(tokenStr string) (*LoginStateClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// exp/nbf are checked below so the leeway and error values are ours.
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &LoginStateClaims{}, func(t *jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSig
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*LoginStateClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	if err := claims.ValidateIssuer(s.issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateAudience(s.audience); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiryWithLeeway(s.leeway); err != nil {
		return nil, err
	}

	return claims, nil
}
