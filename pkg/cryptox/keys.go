package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes derived from the session secret. Changing a label rotates
// that key (and invalidates whatever it protects).
const (
	PurposeLoginState  = "portal/login-state/v1"
	PurposeSessionHash = "portal/session-fingerprint/v1"
)

// MinSecretLength is the shortest session secret accepted.
const MinSecretLength = 32

var ErrWeakSecret = errors.New("cryptox: session secret too short")

// DeriveKey expands secret into a 32-byte key bound to purpose using
// HKDF-SHA256, so one configured secret can safely back several uses.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLength)
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("cryptox: derive %s: %w", purpose, err)
	}
	return key, nil
}
