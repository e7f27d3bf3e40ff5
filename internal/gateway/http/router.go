package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/session"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store"
	"github.com/aussiebroadwan/sessiongate/pkg/httpx"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"

	_ "github.com/aussiebroadwan/sessiongate/api/gateway" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	basePath     string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	Sessions *session.Manager

	Registry       *service.Registry
	LoginService   *service.LoginService
	LogoutService  *service.LogoutService
	RefreshService *service.RefreshService
	NotifyService  *service.NotifyService

	// LogoutTokenHeader overrides the notification secret header.
	LogoutTokenHeader string
}

func NewRouter(basePath, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		basePath:     basePath,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// route prefixes a method pattern with the gateway's base path.
func (r *Router) route(method, path string) string {
	return method + " " + r.basePath + path
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerLogout()
	r.registerStatus()
	r.registerSystem()

	r.Mux.Handle(r.basePath+"/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Session Gateway API
//	@version		0.1.0
//	@description	Session-based OAuth2 front-end gateway. Browsers authenticate against upstream
//	@description	identity providers through redirect flows; the gateway holds the tokens server-side
//	@description	and exposes only an opaque session cookie.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/sessiongate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{LoginService: r.LoginService}

	// Initiation mints state and redirects; moderate limit keeps a
	// misbehaving client from churning the session store.
	r.Mux.Handle(r.route("GET", "/login/{service}"),
		httpx.Chain(http.HandlerFunc(h.HandleInitiate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// The callback redeems single-use codes; strict limit.
	r.Mux.Handle(r.route("GET", "/login/callback"),
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerLogout() {
	h := &LogoutHandler{LogoutService: r.LogoutService}

	r.Mux.Handle(r.route("GET", "/logout/{service}"),
		httpx.Chain(http.HandlerFunc(h.HandleInitiate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle(r.route("GET", "/logout/callback/{service}"),
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	notify := &LoggedOutHandler{
		NotifyService: r.NotifyService,
		TokenHeader:   r.LogoutTokenHeader,
	}
	r.Mux.Handle(r.route("POST", "/loggedout/{service}"),
		httpx.Chain(notify,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerStatus() {
	h := &StatusHandler{Registry: r.Registry}

	// Status endpoints refresh expiring tokens before answering.
	refresh := RefreshSession(r.Sessions, r.RefreshService)

	r.Mux.Handle(r.route("GET", "/isloggedin"),
		httpx.Chain(http.HandlerFunc(h.HandleAll),
			refresh,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle(r.route("GET", "/isloggedin/{service}"),
		httpx.Chain(http.HandlerFunc(h.HandleService),
			refresh,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
