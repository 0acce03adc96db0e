package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/metrics"
	"github.com/aussiebroadwan/portal/pkg/slogx"

	_ "github.com/aussiebroadwan/portal/api/portal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

const loginPath = "/login"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	db            Pinger
	providerReady func() bool

	Apps     UserAppsProvider
	Sessions SessionManager
	Login    *LoginHandler
	Metrics  *metrics.Recorder
}

func NewRouter(
	buildVersion string,
	db Pinger,
	providerReady func() bool,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		db:            db,
		providerReady: providerReady,
		logger:        logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPages()
	r.registerAuth()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			App Portal API
//	@version		0.1.0
//	@description	Lists the applications and single sign-on connections a logged in user may use.
//	@description	All /api routes require a session cookie obtained through /login.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/portal
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:3000
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers pattern with per-route metrics ahead of mws.
func (r *Router) handle(pattern string, h http.Handler, mws ...httpx.Middleware) {
	if r.Metrics != nil {
		mws = append([]httpx.Middleware{r.Metrics.Middleware(pattern)}, mws...)
	}
	r.Mux.Handle(pattern, httpx.Chain(h, mws...))
}

func (r *Router) requireSession() httpx.Middleware {
	return httpx.SessionMiddleware(r.Sessions, loginPath)
}

func (r *Router) registerPages() {
	r.handle("GET /{$}", PageHandler("index.html"),
		httpx.RateLimitByIP(httpx.PageLimit),
	)

	r.handle("GET /profile", PageHandler("profile.html"),
		httpx.RateLimitByIP(httpx.PageLimit),
		r.requireSession(),
	)

	r.handle("GET /static/", AssetsHandler(),
		httpx.RateLimitByIP(httpx.PageLimit),
	)
}

func (r *Router) registerAuth() {
	// Each of these round-trips to the provider.
	r.handle("GET /login", http.HandlerFunc(r.Login.HandleLogin),
		httpx.RateLimitByIP(httpx.LoginLimit),
	)
	r.handle("GET /callback", http.HandlerFunc(r.Login.HandleCallback),
		httpx.RateLimitByIP(httpx.LoginLimit),
	)
	r.handle("GET /logout", http.HandlerFunc(r.Login.HandleLogout),
		httpx.RateLimitByIP(httpx.LoginLimit),
	)
}

func (r *Router) registerAPI() {
	r.handle("GET /api/user", http.HandlerFunc(UserHandler),
		r.requireSession(),
		httpx.RateLimitByUser(httpx.APILimit),
	)

	r.handle("GET /api/user-apps", &UserAppsHandler{Apps: r.Apps},
		r.requireSession(),
		httpx.RateLimitByUser(httpx.APILimit),
	)
}

func (r *Router) registerSystem() {
	r.handle("GET /livez", LivezHandler(r.startTime, r.buildVersion),
		httpx.RateLimitByIP(httpx.PageLimit),
	)
	r.handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.db, r.providerReady),
		httpx.RateLimitByIP(httpx.PageLimit),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
