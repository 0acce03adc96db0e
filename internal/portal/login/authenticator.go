// Package login drives the OpenID Connect authorization code flow against
// the identity provider.
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc"
	"golang.org/x/oauth2"
)

var (
	ErrMissingIDToken = errors.New("login: token response has no id_token")
	ErrNonceMismatch  = errors.New("login: id token nonce mismatch")
	ErrExchange       = errors.New("login: code exchange failed")
)

// ProtocolClaims are ID token claims about the token itself rather than
// the user. They are removed from Identity.Claims.
var ProtocolClaims = []string{
	"aud", "iss", "iat", "exp", "nbf", "nonce", "azp",
	"auth_time", "s_hash", "at_hash", "c_hash",
}

// DefaultScopes are requested on every login.
var DefaultScopes = []string{oidc.ScopeOpenID, "profile", "email"}

// Config configures the Authenticator.
type Config struct {
	IssuerBaseURL string
	BaseURL       string // public URL of this server
	ClientID      string
	ClientSecret  string

	// CallbackPath defaults to /callback.
	CallbackPath string

	// Scopes defaults to DefaultScopes.
	Scopes []string

	HTTPClient *http.Client
}

// Identity is the verified result of a login.
type Identity struct {
	Subject    string
	Claims     map[string]any
	RawIDToken string
}

// Authenticator builds authorize URLs, exchanges codes and verifies ID
// tokens.
type Authenticator struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth    oauth2.Config

	issuer     string
	endSession string
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// New runs OIDC discovery against the issuer. ctx must outlive the
// Authenticator: signing key refreshes reuse it.
func New(ctx context.Context, cfg Config) (*Authenticator, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	ctx = oidc.ClientContext(ctx, httpClient)

	issuer := strings.TrimSuffix(cfg.IssuerBaseURL, "/")
	provider, err := discover(ctx, issuer)
	if err != nil {
		return nil, err
	}

	callbackPath := cfg.CallbackPath
	if callbackPath == "" {
		callbackPath = "/callback"
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	var meta struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("login: read provider metadata: %w", err)
	}

	return &Authenticator{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  baseURL + callbackPath,
			Scopes:       scopes,
		},
		issuer:     issuer,
		endSession: meta.EndSessionEndpoint,
		baseURL:    baseURL,
		clientID:   cfg.ClientID,
		httpClient: httpClient,
	}, nil
}

// discover tries the issuer as configured, then with a trailing slash.
func discover(ctx context.Context, issuer string) (*oidc.Provider, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err == nil {
		return provider, nil
	}
	if p, err2 := oidc.NewProvider(ctx, issuer+"/"); err2 == nil {
		return p, nil
	}
	return nil, fmt.Errorf("login: oidc discovery for %s: %w", issuer, err)
}

// AuthCodeURL returns the provider authorize URL for a new login attempt.
func (a *Authenticator) AuthCodeURL(state, nonce string) string {
	return a.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
}

// Exchange trades an authorization code for tokens and verifies the ID
// token, including its nonce.
func (a *Authenticator) Exchange(ctx context.Context, code, nonce string) (Identity, error) {
	ctx = oidc.ClientContext(ctx, a.httpClient)

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrExchange, err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Identity{}, ErrMissingIDToken
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, fmt.Errorf("login: verify id token: %w", err)
	}
	if idToken.Nonce != nonce {
		return Identity{}, ErrNonceMismatch
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("login: decode claims: %w", err)
	}
	for _, name := range ProtocolClaims {
		delete(claims, name)
	}

	return Identity{
		Subject:    idToken.Subject,
		Claims:     claims,
		RawIDToken: rawIDToken,
	}, nil
}

// LogoutURL returns the provider logout endpoint that sends the browser
// back to returnTo afterwards. With an ID token hint and a discovered
// end_session_endpoint it uses RP-initiated logout, otherwise the
// provider's /v2/logout.
func (a *Authenticator) LogoutURL(returnTo, idTokenHint string) string {
	if a.endSession != "" && idTokenHint != "" {
		q := url.Values{
			"id_token_hint":            {idTokenHint},
			"post_logout_redirect_uri": {returnTo},
			"client_id":                {a.clientID},
		}
		sep := "?"
		if strings.Contains(a.endSession, "?") {
			sep = "&"
		}
		return a.endSession + sep + q.Encode()
	}

	q := url.Values{
		"client_id": {a.clientID},
		"returnTo":  {returnTo},
	}
	return a.issuer + "/v2/logout?" + q.Encode()
}

// BaseURL is the public URL of this server.
func (a *Authenticator) BaseURL() string { return a.baseURL }
