package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/pkg/httpx"
	"github.com/fastplanner/planner/pkg/slogx"

	_ "github.com/fastplanner/planner/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// AuthLimit guards the credential endpoints by client IP; APILimit
	// applies per user to authenticated routes.
	AuthLimit httpx.RateLimitConfig
	APILimit  httpx.RateLimitConfig

	// Notifier is reported by /readyz when set.
	Notifier NotifierStater

	TokenService        *service.TokenService
	SessionService      *service.SessionService
	AuthzService        *service.AuthzService
	InvitationService   *service.InvitationService
	ProjectService      *service.ProjectService
	MemberService       *service.MemberService
	HistoryService      *service.HistoryService
	NotificationService *service.NotificationService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		AuthLimit:    httpx.AuthLimit,
		APILimit:     httpx.APILimit,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProjects()
	r.registerInvitations()
	r.registerNotifications()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Planner API
//	@version		0.1.0
//	@description	Project planning backend: accounts and sessions, project membership and invitations.
//	@description
//	@description				Access tokens are HS256 JWTs valid for 15 minutes. Refresh tokens are opaque and single use.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// verify adapts the token service to the authn middleware.
func (r *Router) verify(token string) (httpx.Identity, error) {
	id, err := r.TokenService.VerifyAccessToken(token)
	if err != nil {
		return httpx.Identity{}, err
	}
	return httpx.Identity{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   id.Role.String(),
	}, nil
}

// authenticated chains bearer authentication and the per-user limit.
func (r *Router) authenticated(h http.Handler, limit httpx.Middleware, extra ...httpx.Middleware) http.Handler {
	mws := append([]httpx.Middleware{httpx.AuthnMiddleware(r.verify), limit}, extra...)
	return httpx.Chain(h, mws...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Sessions: r.SessionService}

	// One strict limiter shared by every credential endpoint.
	strict := httpx.RateLimitByIP(r.AuthLimit)

	r.Mux.Handle("POST /v1/auth/register", httpx.Chain(http.HandlerFunc(h.HandleRegister), strict))
	r.Mux.Handle("POST /v1/auth/login", httpx.Chain(http.HandlerFunc(h.HandleLogin), strict))
	r.Mux.Handle("POST /v1/auth/refresh", httpx.Chain(http.HandlerFunc(h.HandleRefresh), strict))
	r.Mux.Handle("POST /v1/auth/recover-password", httpx.Chain(http.HandlerFunc(h.HandleRecoverPassword), strict))
	r.Mux.Handle("POST /v1/auth/reset-password", httpx.Chain(http.HandlerFunc(h.HandleResetPassword), strict))

	// Logout is not a credential check and always succeeds.
	r.Mux.Handle("POST /v1/auth/logout", http.HandlerFunc(h.HandleLogout))

	r.Mux.Handle("GET /v1/auth/me",
		r.authenticated(http.HandlerFunc(h.HandleMe), httpx.RateLimitByUser(r.APILimit)),
	)
}

func (r *Router) registerProjects() {
	h := &ProjectsHandler{
		Projects: r.ProjectService,
		Members:  r.MemberService,
		History:  r.HistoryService,
	}
	limit := httpx.RateLimitByUser(r.APILimit)
	project := func(res domain.Resource, act domain.Action) httpx.Middleware {
		return RequireProjectAccess(r.AuthzService, res, act)
	}

	r.Mux.Handle("POST /v1/projects", r.authenticated(http.HandlerFunc(h.HandleCreate), limit))
	r.Mux.Handle("GET /v1/projects/{projectId}",
		r.authenticated(http.HandlerFunc(h.HandleGet), limit,
			project(domain.ResourceProject, domain.ActionView)),
	)
	r.Mux.Handle("GET /v1/projects/{projectId}/members",
		r.authenticated(http.HandlerFunc(h.HandleListMembers), limit,
			project(domain.ResourceProject, domain.ActionViewMembers)),
	)
	r.Mux.Handle("PUT /v1/projects/{projectId}/members/{userId}",
		r.authenticated(http.HandlerFunc(h.HandleUpdateMember), limit,
			project(domain.ResourceProject, domain.ActionManageMembers)),
	)
	r.Mux.Handle("DELETE /v1/projects/{projectId}/members/{userId}",
		r.authenticated(http.HandlerFunc(h.HandleRemoveMember), limit,
			project(domain.ResourceProject, domain.ActionManageMembers)),
	)
	r.Mux.Handle("GET /v1/projects/{projectId}/history",
		r.authenticated(http.HandlerFunc(h.HandleHistory), limit,
			project(domain.ResourceHistory, domain.ActionView)),
	)
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{Invitations: r.InvitationService}
	limit := httpx.RateLimitByUser(r.APILimit)

	// Creation checks admin rights itself so it can answer not_project_admin.
	r.Mux.Handle("POST /v1/projects/{projectId}/invitations",
		r.authenticated(http.HandlerFunc(h.HandleCreate), limit),
	)
	r.Mux.Handle("GET /v1/projects/{projectId}/invitations",
		r.authenticated(http.HandlerFunc(h.HandleListForProject), limit,
			RequireProjectAccess(r.AuthzService, domain.ResourceInvitation, domain.ActionView)),
	)
	r.Mux.Handle("GET /v1/invitations/me", r.authenticated(http.HandlerFunc(h.HandleListMine), limit))
	r.Mux.Handle("POST /v1/invitations/{invitationId}/accept", r.authenticated(http.HandlerFunc(h.HandleAccept), limit))
	r.Mux.Handle("POST /v1/invitations/{invitationId}/reject", r.authenticated(http.HandlerFunc(h.HandleReject), limit))
}

func (r *Router) registerNotifications() {
	h := &NotificationsHandler{Notifications: r.NotificationService}
	r.Mux.Handle("GET /v1/notifications", r.authenticated(h, httpx.RateLimitByUser(r.APILimit)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Notifier))
}
