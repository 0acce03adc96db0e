package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it
// and expose sub-repositories per concern.
type Store interface {
	Sessions() Sessions

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Sessions interface {
	// CreateSession stores a new session. A duplicate id or token hash
	// yields ErrAlreadyExists.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenHash returns an unexpired session by fingerprint.
	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// DeleteSession removes a session by id. Missing ids are not an error.
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions is housekeeping; it returns the rows removed.
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
