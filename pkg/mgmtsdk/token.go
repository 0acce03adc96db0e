package mgmtsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshBuffer is how long before expiry a cached token is
// considered stale.
const DefaultRefreshBuffer = 30 * time.Second

// TokenProviderConfig configures the client-credentials grant.
type TokenProviderConfig struct {
	IssuerBaseURL string
	ClientID      string
	ClientSecret  string

	// Audience defaults to {IssuerBaseURL}/api/v2/.
	Audience string

	// HTTPClient is used for the token endpoint. Defaults to a client with
	// a 10 second timeout.
	HTTPClient *http.Client

	// RefreshBuffer defaults to DefaultRefreshBuffer.
	RefreshBuffer time.Duration
}

// TokenProvider hands out Management API tokens. Tokens are cached per
// process and refreshed when they come within RefreshBuffer of expiry;
// concurrent callers during a refresh share a single upstream request.
type TokenProvider struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
	buffer     time.Duration

	mu    sync.RWMutex
	token *oauth2.Token

	group singleflight.Group
}

// NewTokenProvider validates cfg and returns a provider.
func NewTokenProvider(cfg TokenProviderConfig) (*TokenProvider, error) {
	issuer := strings.TrimSuffix(cfg.IssuerBaseURL, "/")
	if issuer == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	audience := cfg.Audience
	if audience == "" {
		audience = issuer + "/api/v2/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	buffer := cfg.RefreshBuffer
	if buffer <= 0 {
		buffer = DefaultRefreshBuffer
	}

	return &TokenProvider{
		cfg: clientcredentials.Config{
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			TokenURL:       issuer + "/oauth/token",
			EndpointParams: url.Values{"audience": {audience}},
			AuthStyle:      oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		buffer:     buffer,
	}, nil
}

// Token returns a valid bearer token, fetching a new one when the cached
// token is missing or about to expire.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if tok, ok := p.cached(); ok {
		return tok, nil
	}

	// The shared refresh must not be cancelled by whichever caller happened
	// to start it. The HTTP client timeout still bounds it.
	detached := context.WithoutCancel(ctx)
	ch := p.group.DoChan("token", func() (any, error) {
		if tok, ok := p.cached(); ok {
			return tok, nil
		}
		return p.refresh(detached)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call re-authenticates.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	p.token = nil
	p.mu.Unlock()
}

func (p *TokenProvider) cached() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.token == nil || p.token.AccessToken == "" {
		return "", false
	}
	// A token without expiry is never reused.
	if p.token.Expiry.IsZero() || time.Now().Add(p.buffer).After(p.token.Expiry) {
		return "", false
	}
	return p.token.AccessToken, true
}

func (p *TokenProvider) refresh(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.cfg.Token(ctx)
	if err != nil {
		authErr := &UpstreamAuthError{Err: err}

		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			if re.Response != nil {
				authErr.Status = re.Response.StatusCode
			}
			authErr.Payload = truncate(re.Body)
		}
		return "", authErr
	}

	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()

	return tok.AccessToken, nil
}
