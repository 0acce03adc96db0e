package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/login"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// Authenticator is the provider side of the login flow.
type Authenticator interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code, nonce string) (login.Identity, error)
	LogoutURL(returnTo, idTokenHint string) string
}

// SessionManager issues, resolves and revokes login sessions.
type SessionManager interface {
	httpx.PrincipalResolver
	Create(ctx context.Context, userID string, claims map[string]any, rawIDToken string) (string, domain.Session, error)
	Resolve(ctx context.Context, token string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// LoginHandler serves /login, /callback and /logout.
type LoginHandler struct {
	Auth     Authenticator
	State    *login.StateCodec
	Sessions SessionManager

	// BaseURL is where the provider sends the browser after logout.
	BaseURL string

	// SecureCookies marks cookies Secure. Enabled in production.
	SecureCookies bool
}

// HandleLogin godoc
//
//	@Summary		Start login
//	@Description	Redirects to the identity provider. returnTo must be a local path.
//	@Tags			Auth
//	@Param			returnTo	query	string	false	"local path to return to after login"
//	@Success		302
//	@Router			/login [get].
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	value, pending, err := h.State.Begin(r.URL.Query().Get("returnTo"))
	if err != nil {
		l.Error("failed to start login", "error", err)
		httpx.WriteInternalError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     login.StateCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.stateTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	http.Redirect(w, r, h.Auth.AuthCodeURL(pending.State, pending.Nonce), http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Login callback
//	@Description	Validates state, exchanges the code, verifies the ID token and starts a session
//	@Tags			Auth
//	@Param			code	query	string	true	"authorization code"
//	@Param			state	query	string	true	"state echoed by the provider"
//	@Success		302
//	@Failure		400	{object}	httpx.ErrorResponse
//	@Failure		500	{object}	httpx.ErrorResponse
//	@Router			/callback [get].
func (h *LoginHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)
	q := r.URL.Query()

	// The state cookie is single use.
	h.clearCookie(w, login.StateCookieName)

	if providerErr := q.Get("error"); providerErr != "" {
		l.Warn("provider returned login error", "error", providerErr, "description", q.Get("error_description"))
		httpx.WriteError(w, http.StatusBadRequest, "login failed")
		return
	}

	c, err := r.Cookie(login.StateCookieName)
	if err != nil {
		l.Warn("callback without login state cookie")
		httpx.WriteError(w, http.StatusBadRequest, "login state missing or expired")
		return
	}

	pending, err := h.State.Finish(c.Value, q.Get("state"))
	if err != nil {
		l.Warn("invalid login state", "error", err)
		httpx.WriteError(w, http.StatusBadRequest, "invalid login state")
		return
	}

	code := q.Get("code")
	if code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	id, err := h.Auth.Exchange(ctx, code, pending.Nonce)
	if err != nil {
		l.Warn("login exchange failed", "error", err)
		if errors.Is(err, login.ErrExchange) {
			httpx.WriteError(w, http.StatusBadRequest, "login failed")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "invalid id token")
		return
	}

	token, sess, err := h.Sessions.Create(ctx, id.Subject, id.Claims, id.RawIDToken)
	if err != nil {
		httpx.WriteInternalError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     service.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	http.Redirect(w, r, pending.ReturnTo, http.StatusFound)
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Ends the local session and redirects to the provider logout endpoint, passing the stored ID token as hint
//	@Tags			Auth
//	@Success		302
//	@Router			/logout [get].
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var idTokenHint string
	if c, err := r.Cookie(service.SessionCookieName); err == nil && c.Value != "" {
		if sess, err := h.Sessions.Resolve(ctx, c.Value); err == nil {
			idTokenHint = sess.IDToken
			if err := h.Sessions.Delete(ctx, sess.ID); err != nil {
				slogx.FromContext(ctx).Error("failed to delete session", "error", err, "session_id", sess.ID)
			}
		}
	}

	h.clearCookie(w, service.SessionCookieName)
	httpx.NoCache(w)
	http.Redirect(w, r, h.Auth.LogoutURL(h.BaseURL, idTokenHint), http.StatusFound)
}

func (h *LoginHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *LoginHandler) stateTTL() time.Duration {
	if h.State.TTL > 0 {
		return h.State.TTL
	}
	return jwtx.DefaultLoginStateTTL
}
