package mgmtsdk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredentials is returned when the token provider is built
	// with an empty issuer, client id or client secret.
	ErrMissingCredentials = errors.New("mgmtsdk: issuer, client id and client secret are required")

	// ErrMalformedResponse is returned when a 2xx body does not have the
	// expected shape.
	ErrMalformedResponse = errors.New("mgmtsdk: malformed response")
)

// maxPayload bounds how much of an upstream error body is kept.
const maxPayload = 2048

// UpstreamAuthError is returned when the provider rejects the
// client-credentials grant or cannot be reached.
type UpstreamAuthError struct {
	// Status is the HTTP status of the token endpoint, 0 on network failure.
	Status int

	// Payload is the provider's error body, truncated.
	Payload string

	Err error
}

func (e *UpstreamAuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("mgmtsdk: token request failed: %v", e.Err)
	}
	return fmt.Sprintf("mgmtsdk: token request failed (HTTP %d): %s", e.Status, e.Payload)
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }

// UpstreamFetchError is returned when a Management API read fails.
type UpstreamFetchError struct {
	// Op names the read, e.g. "list_applications".
	Op string

	// Status is the HTTP status, 0 on network or decode failure.
	Status int

	// Payload is the provider's error body, truncated.
	Payload string

	Err error
}

func (e *UpstreamFetchError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("mgmtsdk: %s failed (HTTP %d): %s", e.Op, e.Status, e.Payload)
	case e.Err != nil:
		return fmt.Sprintf("mgmtsdk: %s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("mgmtsdk: %s failed", e.Op)
	}
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// Unauthorized reports whether the provider rejected the bearer token.
func (e *UpstreamFetchError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

func truncate(b []byte) string {
	if len(b) > maxPayload {
		return string(b[:maxPayload]) + "..."
	}
	return string(b)
}
