package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// ErrNoSession is returned by a PrincipalResolver when the request carries
// no usable session.
var ErrNoSession = errors.New("httpx: no session")

// PrincipalResolver maps a request's session cookie to a Principal.
type PrincipalResolver interface {
	ResolvePrincipal(r *http.Request) (Principal, error)
}

// SessionMiddleware requires a valid session. Requests without one are
// redirected to loginPath with a returnTo pointing back at the original URL.
func SessionMiddleware(resolver PrincipalResolver, loginPath string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			p, err := resolver.ResolvePrincipal(r)
			if err != nil {
				if !errors.Is(err, ErrNoSession) {
					log.Warn("session lookup failed", "error", err)
				}
				RedirectToLogin(w, r, loginPath)
				return
			}

			ctx = contextWithPrincipal(ctx, p)
			ctx = slogx.With(ctx, "user_id", p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectToLogin sends the browser to loginPath, remembering where it was.
func RedirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	target := loginPath + "?" + url.Values{"returnTo": {r.URL.RequestURI()}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

// WithPrincipal attaches p to ctx. Exposed for handler tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return contextWithPrincipal(ctx, p)
}
