package login

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
)

// StateCookieName holds the signed login state between /login and
// /callback.
const StateCookieName = "portal_login_state"

var ErrStateMismatch = errors.New("login: state mismatch")

// PendingLogin is what /login remembers for /callback.
type PendingLogin struct {
	State    string
	Nonce    string
	ReturnTo string
}

// StateCodec seals a PendingLogin into a signed cookie value.
type StateCodec struct {
	Signer *jwtx.StateSigner
	TTL    time.Duration
}

// Begin starts a login attempt and returns the cookie value to set.
func (c *StateCodec) Begin(returnTo string) (string, PendingLogin, error) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", PendingLogin{}, err
	}
	nonce, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", PendingLogin{}, err
	}

	p := PendingLogin{State: state, Nonce: nonce, ReturnTo: SanitizeReturnTo(returnTo)}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultLoginStateTTL
	}
	claims := jwtx.NewLoginStateClaims(c.Signer.Issuer(), c.Signer.Audience(), p.State, p.Nonce, p.ReturnTo, ttl, time.Now())
	value, err := c.Signer.Sign(claims)
	if err != nil {
		return "", PendingLogin{}, err
	}
	return value, p, nil
}

// Finish verifies the cookie value and checks it against the state
// echoed by the provider.
func (c *StateCodec) Finish(cookieValue, state string) (PendingLogin, error) {
	claims, err := c.Signer.Verify(cookieValue)
	if err != nil {
		return PendingLogin{}, err
	}
	if state == "" || claims.State != state {
		return PendingLogin{}, ErrStateMismatch
	}
	return PendingLogin{
		State:    claims.State,
		Nonce:    claims.Nonce,
		ReturnTo: SanitizeReturnTo(claims.ReturnTo),
	}, nil
}

// SanitizeReturnTo only allows local absolute paths; anything else becomes
// "/".
func SanitizeReturnTo(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}
