package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/pkg/httpx"
	"github.com/fastplanner/planner/pkg/plannersdk"
	"github.com/fastplanner/planner/pkg/slogx"
)

type identity = httpx.Identity

// ProjectAccess is what the project middleware resolved for a request.
type ProjectAccess struct {
	ProjectID int64
	Role      domain.Role
}

type projectAccessKey struct{}

func withProjectAccess(ctx context.Context, pa ProjectAccess) context.Context {
	return context.WithValue(ctx, projectAccessKey{}, pa)
}

// ProjectAccessFrom returns the access resolved by RequireProjectAccess.
func ProjectAccessFrom(ctx context.Context) (ProjectAccess, bool) {
	pa, ok := ctx.Value(projectAccessKey{}).(ProjectAccess)
	return pa, ok
}

// RequireProjectAccess gates a route on the caller's role in a project.
// The project id comes from the {projectId} path parameter, or else from a
// "projectId" field in the JSON body. It must run after AuthnMiddleware.
func RequireProjectAccess(authz *service.AuthzService, resource domain.Resource, action domain.Action) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			id, ok := httpx.IdentityFrom(ctx)
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, plannersdk.CodeUnauthorized, "authentication required")
				return
			}

			projectID, err := projectIDFrom(w, r)
			if err != nil {
				log.Info("project access rejected", slog.String("reason", "missing_project_id"), slog.Any("error", err))
				httpx.WriteError(w, http.StatusBadRequest, plannersdk.CodeInvalidRequest, "projectId is required")
				return
			}

			role, err := authz.Authorize(ctx, id.UserID, projectID, resource, action)
			if err != nil {
				// Authorize logs the precise reason.
				writeServiceError(w, r, err)
				return
			}

			ctx = withProjectAccess(ctx, ProjectAccess{ProjectID: projectID, Role: role})
			ctx = slogx.With(ctx, "project_id", projectID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var errNoProjectID = errors.New("no project id in path or body")

// projectIDFrom applies the lookup order path, then body. The body is
// restored so the handler can decode it again.
func projectIDFrom(w http.ResponseWriter, r *http.Request) (int64, error) {
	if raw := r.PathValue("projectId"); raw != "" {
		return parseID(raw)
	}

	if r.Body == nil || r.Body == http.NoBody {
		return 0, errNoProjectID
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, httpx.MaxBodyBytes))
	if err != nil {
		return 0, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var probe struct {
		ProjectID json.Number `json:"projectId"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.ProjectID == "" {
		return 0, errNoProjectID
	}
	return parseID(probe.ProjectID.String())
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
