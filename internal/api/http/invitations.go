package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/pkg/httpx"
	"github.com/fastplanner/planner/pkg/plannersdk"
)

type InvitationsHandler struct {
	Invitations *service.InvitationService
}

// HandleCreate godoc
//
//	@Summary		Invite to project
//	@Description	Offer a project role to an email address. The address need not be registered yet.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			projectId	path		int									true	"Project ID"
//	@Param			request		body		plannersdk.CreateInvitationRequest	true	"Invitation"
//	@Success		201			{object}	plannersdk.InvitationResponse
//	@Failure		403			{object}	httpx.ErrorResponse	"not_project_admin"
//	@Failure		409			{object}	httpx.ErrorResponse	"duplicate_pending_invitation"
//	@Security		BearerAuth
//	@Router			/v1/projects/{projectId}/invitations [post]
func (h *InvitationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}
	var req plannersdk.CreateInvitationRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	id, _ := httpx.IdentityFrom(r.Context())

	inv, err := h.Invitations.Create(r.Context(), service.CreateInvitationInput{
		ProjectID:   projectID,
		RequesterID: id.UserID,
		Email:       req.Email,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toInvitationResponse(inv))
}

// HandleListForProject godoc
//
//	@Summary	List project invitations
//	@Tags		Invitations
//	@Produce	json
//	@Param		projectId	path		int		true	"Project ID"
//	@Param		status		query		string	false	"PENDING, ACCEPTED, REJECTED or EXPIRED"
//	@Success	200			{array}		plannersdk.InvitationResponse
//	@Failure	403			{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/v1/projects/{projectId}/invitations [get]
func (h *InvitationsHandler) HandleListForProject(w http.ResponseWriter, r *http.Request) {
	pa, _ := ProjectAccessFrom(r.Context())
	status := domain.InvitationStatus(strings.ToUpper(r.URL.Query().Get("status")))

	list, err := h.Invitations.ListForProject(r.Context(), pa.ProjectID, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInvitationResponses(list))
}

// HandleListMine godoc
//
//	@Summary	List my invitations
//	@Tags		Invitations
//	@Produce	json
//	@Success	200	{array}	plannersdk.InvitationResponse
//	@Security	BearerAuth
//	@Router		/v1/invitations/me [get]
func (h *InvitationsHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFrom(r.Context())

	list, err := h.Invitations.ListForSelf(r.Context(), id.UserID, id.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInvitationResponses(list))
}

// HandleAccept godoc
//
//	@Summary		Accept invitation
//	@Description	Join the project with the invited role.
//	@Tags			Invitations
//	@Produce		json
//	@Param			invitationId	path		int	true	"Invitation ID"
//	@Success		200				{object}	plannersdk.OKResponse
//	@Failure		403				{object}	httpx.ErrorResponse
//	@Failure		404				{object}	httpx.ErrorResponse
//	@Failure		409				{object}	httpx.ErrorResponse	"invitation_not_pending"
//	@Failure		410				{object}	httpx.ErrorResponse	"invitation_expired"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{invitationId}/accept [post]
func (h *InvitationsHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.Invitations.Accept)
}

// HandleReject godoc
//
//	@Summary	Reject invitation
//	@Tags		Invitations
//	@Produce	json
//	@Param		invitationId	path		int	true	"Invitation ID"
//	@Success	200				{object}	plannersdk.OKResponse
//	@Failure	403				{object}	httpx.ErrorResponse
//	@Failure	404				{object}	httpx.ErrorResponse
//	@Failure	409				{object}	httpx.ErrorResponse	"invitation_not_pending"
//	@Failure	410				{object}	httpx.ErrorResponse	"invitation_expired"
//	@Security	BearerAuth
//	@Router		/v1/invitations/{invitationId}/reject [post]
func (h *InvitationsHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.Invitations.Reject)
}

type resolveFunc func(ctx context.Context, invitationID int64, actor domain.Identity) error

func (h *InvitationsHandler) resolve(w http.ResponseWriter, r *http.Request, fn resolveFunc) {
	invitationID, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}
	id, _ := httpx.IdentityFrom(r.Context())

	if err := fn(r.Context(), invitationID, identityOf(id)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, plannersdk.OKResponse{OK: true})
}
