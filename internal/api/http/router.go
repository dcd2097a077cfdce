package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wavecommons/soundvault/internal/api/service"
	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/pkg/httpx"
	"github.com/wavecommons/soundvault/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion    string
	templateVariant string
	startTime       time.Time
	logger          *slog.Logger

	store         store.Store
	TokenService  *service.TokenService
	AuthService   *service.AuthService
	UploadService *service.UploadService
	SoundService  *service.SoundService
}

func NewRouter(
	buildVersion, templateVariant string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:             http.NewServeMux(),
		buildVersion:    buildVersion,
		templateVariant: templateVariant,
		startTime:       time.Now(),
		store:           st,
		logger:          logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerSounds()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// POST /token - strict rate limit by IP (covers both grant types)
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// GET /authorize - lenient rate limit (just renders the consent page)
	authorizeHandler := &AuthorizeHandler{
		Store:           r.store,
		TemplateVariant: r.templateVariant,
	}
	r.Mux.Handle("GET /v1/oauth2/authorize",
		httpx.Chain(authorizeHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSounds() {
	sounds := &SoundsHandler{SoundService: r.SoundService}

	r.Mux.Handle("GET /v1/sounds",
		httpx.Chain(http.HandlerFunc(sounds.HandleList),
			ResolveAuth(r.AuthService),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/sounds/{id}",
		httpx.Chain(http.HandlerFunc(sounds.HandleGet),
			ResolveAuth(r.AuthService),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/sounds/{id}/download",
		httpx.Chain(http.HandlerFunc(sounds.HandleDownload),
			ResolveAuth(r.AuthService),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /sounds/upload - authenticated, write-gated, moderate limit
	upload := &UploadHandler{UploadService: r.UploadService}
	r.Mux.Handle("POST /v1/sounds/upload",
		httpx.Chain(upload,
			ResolveAuth(r.AuthService),
			RequireAccount,
			RequireWriteScope,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(
			ReadyzHandler(r.startTime, r.buildVersion, r.store,
				r.UploadService.UploadsRoot, r.UploadService.SoundsRoot),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
