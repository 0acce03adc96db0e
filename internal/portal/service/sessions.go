package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/idx"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// SessionCookieName is the cookie holding the opaque session token.
const SessionCookieName = "portal_session"

// DefaultSessionTTL is used when SessionService.TTL is unset.
const DefaultSessionTTL = 24 * time.Hour

var ErrSessionNotFound = errors.New("session not found")

// SessionService issues and resolves server-side login sessions. Only a
// keyed fingerprint of the cookie token is stored.
type SessionService struct {
	Store store.Store

	// FingerprintKey keys the HMAC applied to cookie tokens.
	FingerprintKey []byte

	TTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Create stores a new session for the given subject and returns the
// plaintext cookie token.
func (s *SessionService) Create(
	ctx context.Context,
	userID string,
	claims map[string]any,
	rawIDToken string,
) (string, domain.Session, error) {
	l := slogx.FromContext(ctx)

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate session token", "error", err)
		return "", domain.Session{}, err
	}

	now := s.now().UTC()
	sess := domain.Session{
		ID:        idx.NewAt(now).String(),
		TokenHash: cryptox.FingerprintToken(s.FingerprintKey, token),
		UserID:    userID,
		Claims:    claims,
		IDToken:   rawIDToken,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}

	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		l.Error("failed to store session", "error", err)
		return "", domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	l.Info("session created", "session_id", sess.ID, "user_id", userID)
	return token, sess, nil
}

// Resolve returns the live session for a cookie token.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, ErrSessionNotFound
	}

	sess, err := s.Store.Sessions().GetSessionByTokenHash(ctx, cryptox.FingerprintToken(s.FingerprintKey, token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	if sess.Expired(s.now()) {
		return domain.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session. Unknown ids are ignored.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.Store.Sessions().DeleteSession(ctx, id)
}

// ResolvePrincipal implements httpx.PrincipalResolver using the session
// cookie.
func (s *SessionService) ResolvePrincipal(r *http.Request) (httpx.Principal, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return httpx.Principal{}, httpx.ErrNoSession
	}

	sess, err := s.Resolve(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return httpx.Principal{}, httpx.ErrNoSession
		}
		return httpx.Principal{}, err
	}

	return httpx.Principal{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Claims:    sess.Claims,
	}, nil
}

// ttl falls back to DefaultSessionTTL.
func (s *SessionService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSessionTTL
	}
	return s.TTL
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
