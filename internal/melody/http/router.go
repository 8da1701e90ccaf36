package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/service"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/httpx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/Natnae-l/AddisMelody-Backend/api" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	SessionService *service.SessionService
	AccountService *service.AccountService
	SongService    *service.SongService
	Notifier       *service.Notifier
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.MetricsMiddleware(r.Mux),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerSongs()
	r.registerNotifications()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
//
//	@title			AddisMelody API
//	@version		0.1.0
//	@description	Music sharing backend: accounts, song uploads, favourites, per-user statistics and a live notification stream.
//	@description
//	@description	Authenticated endpoints accept the credential pair either as "token"/"refreshToken" cookies or as an Authorization bearer header plus X-Refresh-Token. An expired access token accompanied by a live refresh token is renewed silently; the fresh pair is set as cookies and echoed in the response body.
//
//	@contact.name	AddisMelody
//	@contact.url	https://github.com/Natnae-l/AddisMelody-Backend
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
//
//	@securityDefinitions.apikey	SessionAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{AccountService: r.AccountService}
	session := SessionMiddleware(r.SessionService)

	// Registration and login carry credentials; strict limit by IP.
	r.Mux.Handle("POST /v1/accounts",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("PATCH /v1/accounts/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/accounts/profile/picture",
		httpx.Chain(http.HandlerFunc(h.HandleProfilePicture),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSongs() {
	h := &SongsHandler{SongService: r.SongService}
	session := SessionMiddleware(r.SessionService)

	r.Mux.Handle("GET /v1/songs",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/songs",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/songs/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/songs/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/songs/{id}/favourite",
		httpx.Chain(http.HandlerFunc(h.HandleFavourite),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/songs/favourites",
		httpx.Chain(http.HandlerFunc(h.HandleFavourites),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/songs/statistics",
		httpx.Chain(http.HandlerFunc(h.HandleStatistics),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// Media streaming is unauthenticated (object keys are unguessable)
	// and gets the public budget: one page load fetches many banners
	// and audio chunks.
	r.Mux.Handle("GET /v1/songs/data/{key...}",
		httpx.Chain(http.HandlerFunc(h.HandleMedia),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerNotifications() {
	h := &NotificationsHandler{Notifier: r.Notifier}
	session := SessionMiddleware(r.SessionService)

	r.Mux.Handle("GET /v1/notifications/stream",
		httpx.Chain(http.HandlerFunc(h.HandleStream),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/notifications",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/notifications/read",
		httpx.Chain(http.HandlerFunc(h.HandleMarkRead),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
