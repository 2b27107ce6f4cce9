package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/service"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/pkg/httpx"
	"github.com/aussiebroadwan/carelink/pkg/jwtx"
	"github.com/aussiebroadwan/carelink/pkg/slogx"

	_ "github.com/aussiebroadwan/carelink/api/consent" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	IdentityService *service.IdentityService
	LinkService     *service.LinkService
	GrantService    *service.GrantService

	// ConfirmLimit throttles code submissions per user on top of the
	// per-challenge latch. Zero means httpx.StrictLimit.
	ConfirmLimit httpx.RateLimitConfig
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/livez", "/readyz"),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLinks()
	r.registerGrants()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			CareLink Consent Service API
//	@version		0.1.0
//	@description	Consent linking between partners and subjects, confirmed by a one-time code
//	@description	sent to the subject, and time-boxed access grants for doctors.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/carelink
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Identity provider access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authn verifies the bearer token and resolves application roles.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.verifier, identityResolver(r.IdentityService))
}

func (r *Router) registerLinks() {
	h := &LinksHandler{LinkService: r.LinkService}

	partner := func(hf http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(hf,
			r.authn(),
			httpx.RequireAnyRole(domain.RolePartner.String()),
			httpx.RateLimitByUser(limit),
		)
	}

	confirmLimit := r.ConfirmLimit
	if !confirmLimit.Valid() {
		confirmLimit = httpx.StrictLimit
	}

	r.Mux.Handle("POST /v1/links/request", partner(h.HandleRequest, httpx.ModerateLimit))
	// Strict: code guessing is bounded here and by the per-pair challenge limit.
	r.Mux.Handle("POST /v1/links/confirm", partner(h.HandleConfirm, confirmLimit))
	r.Mux.Handle("GET /v1/links", partner(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/links/{subject_id}", partner(h.HandleAuthorize, httpx.LenientLimit))
	r.Mux.Handle("DELETE /v1/links/{subject_id}", partner(h.HandleUnlink, httpx.ModerateLimit))
}

func (r *Router) registerGrants() {
	h := &GrantsHandler{GrantService: r.GrantService}

	doctor := func(hf http.HandlerFunc) http.Handler {
		return httpx.Chain(hf,
			r.authn(),
			httpx.RequireAnyRole(domain.RoleDoctor.String()),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}
	manager := func(hf http.HandlerFunc) http.Handler {
		return httpx.Chain(hf,
			r.authn(),
			httpx.RequireAnyRole(domain.RolePatient.String(), domain.RoleSuperAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/grants", doctor(h.HandleList))
	r.Mux.Handle("GET /v1/grants/subjects/{subject_id}", doctor(h.HandleCanView))
	r.Mux.Handle("POST /v1/grants", manager(h.HandleIssue))
	r.Mux.Handle("POST /v1/grants/{id}/revoke", manager(h.HandleRevoke))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
