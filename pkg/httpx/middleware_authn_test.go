package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(*http.Request) (httpx.Principal, error)

func (f resolverFunc) ResolvePrincipal(r *http.Request) (httpx.Principal, error) { return f(r) }

func TestSessionMiddleware(t *testing.T) {
	var seen httpx.Principal
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httpx.PrincipalFromContext(r.Context())
		require.Equal(t, seen.UserID, httpx.UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("attaches principal", func(t *testing.T) {
		resolver := resolverFunc(func(*http.Request) (httpx.Principal, error) {
			return httpx.Principal{UserID: "auth0|123", SessionID: "s1"}, nil
		})

		rec := httptest.NewRecorder()
		httpx.SessionMiddleware(resolver, "/login")(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "auth0|123", seen.UserID)
	})

	for name, resolveErr := range map[string]error{
		"no session":     httpx.ErrNoSession,
		"lookup failure": errors.New("db gone"),
	} {
		t.Run("redirects on "+name, func(t *testing.T) {
			resolver := resolverFunc(func(*http.Request) (httpx.Principal, error) {
				return httpx.Principal{}, resolveErr
			})

			rec := httptest.NewRecorder()
			httpx.SessionMiddleware(resolver, "/login")(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile?tab=apps", nil))

			require.Equal(t, http.StatusFound, rec.Code)
			loc, err := url.Parse(rec.Header().Get("Location"))
			require.NoError(t, err)
			require.Equal(t, "/login", loc.Path)
			require.Equal(t, "/profile?tab=apps", loc.Query().Get("returnTo"))
		})
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestWriteInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteInternalError(rec)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}
