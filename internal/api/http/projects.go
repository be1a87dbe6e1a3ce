package http

import (
	"net/http"
	"strconv"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/pkg/httpx"
	"github.com/fastplanner/planner/pkg/plannersdk"
)

type ProjectsHandler struct {
	Projects *service.ProjectService
	Members  *service.MemberService
	History  *service.HistoryService
}

// HandleCreate godoc
//
//	@Summary		Create project
//	@Description	Create a project. The caller becomes its admin.
//	@Tags			Projects
//	@Accept			json
//	@Produce		json
//	@Param			request	body		plannersdk.CreateProjectRequest	true	"Project"
//	@Success		201		{object}	plannersdk.ProjectResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/projects [post]
func (h *ProjectsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req plannersdk.CreateProjectRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	id, _ := httpx.IdentityFrom(r.Context())

	p, err := h.Projects.Create(r.Context(), id.UserID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toProjectResponse(p))
}

// HandleGet godoc
//
//	@Summary	Get project
//	@Tags		Projects
//	@Produce	json
//	@Param		projectId	path		int	true	"Project ID"
//	@Success	200			{object}	plannersdk.ProjectResponse
//	@Failure	403			{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/v1/projects/{projectId} [get]
func (h *ProjectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	pa, _ := ProjectAccessFrom(r.Context())

	p, err := h.Projects.Get(r.Context(), pa.ProjectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProjectResponse(p))
}

// HandleListMembers godoc
//
//	@Summary	List members
//	@Tags		Projects
//	@Produce	json
//	@Param		projectId	path		int	true	"Project ID"
//	@Success	200			{array}		plannersdk.MemberResponse
//	@Failure	403			{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/v1/projects/{projectId}/members [get]
func (h *ProjectsHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	pa, _ := ProjectAccessFrom(r.Context())

	members, err := h.Members.List(r.Context(), pa.ProjectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMemberResponses(members))
}

// HandleUpdateMember godoc
//
//	@Summary		Change member role
//	@Description	Admins may change any non-admin member and themselves.
//	@Tags			Projects
//	@Accept			json
//	@Produce		json
//	@Param			projectId	path		int									true	"Project ID"
//	@Param			userId		path		int									true	"User ID"
//	@Param			request		body		plannersdk.UpdateMemberRoleRequest	true	"Role"
//	@Success		200			{object}	plannersdk.OKResponse
//	@Failure		403			{object}	httpx.ErrorResponse
//	@Failure		404			{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/projects/{projectId}/members/{userId} [put]
func (h *ProjectsHandler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	var req plannersdk.UpdateMemberRoleRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	id, _ := httpx.IdentityFrom(r.Context())
	pa, _ := ProjectAccessFrom(r.Context())

	if err := h.Members.UpdateRole(r.Context(), id.UserID, pa.ProjectID, userID, domain.Role(req.Role)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, plannersdk.OKResponse{OK: true})
}

// HandleRemoveMember godoc
//
//	@Summary	Remove member
//	@Tags		Projects
//	@Param		projectId	path	int	true	"Project ID"
//	@Param		userId		path	int	true	"User ID"
//	@Success	204
//	@Failure	403	{object}	httpx.ErrorResponse
//	@Failure	404	{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/v1/projects/{projectId}/members/{userId} [delete]
func (h *ProjectsHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	id, _ := httpx.IdentityFrom(r.Context())
	pa, _ := ProjectAccessFrom(r.Context())

	if err := h.Members.Remove(r.Context(), id.UserID, pa.ProjectID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHistory godoc
//
//	@Summary	Project history
//	@Tags		Projects
//	@Produce	json
//	@Param		projectId	path		int	true	"Project ID"
//	@Param		limit		query		int	false	"Maximum entries (default 50, max 500)"
//	@Success	200			{array}		plannersdk.HistoryEntryResponse
//	@Failure	403			{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/v1/projects/{projectId}/history [get]
func (h *ProjectsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	pa, _ := ProjectAccessFrom(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, plannersdk.CodeInvalidRequest, "limit must be a number")
			return
		}
		limit = n
	}

	entries, err := h.History.ListForProject(r.Context(), pa.ProjectID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toHistoryResponses(entries))
}

// pathID parses a positive id path parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := parseID(r.PathValue(name))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, plannersdk.CodeInvalidRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
