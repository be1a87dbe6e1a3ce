package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/pkg/httpx"
	"github.com/fastplanner/planner/pkg/plannersdk"
	"github.com/fastplanner/planner/pkg/slogx"
)

type errorMapping struct {
	err    error
	status int
	code   string
	desc   string
}

// serviceErrors maps business errors to responses. Both authorization
// failures share one body so the required role is never revealed.
var serviceErrors = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, plannersdk.CodeValidation, "invalid request"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, plannersdk.CodeInvalidCredentials, "invalid email or password"},
	{service.ErrEmailTaken, http.StatusConflict, plannersdk.CodeEmailTaken, "email is already registered"},
	{service.ErrInvalidToken, http.StatusUnauthorized, plannersdk.CodeUnauthorized, "invalid or expired token"},
	{service.ErrRefreshNotFound, http.StatusNotFound, plannersdk.CodeRefreshNotFound, "refresh token not found"},
	{service.ErrRefreshExpired, http.StatusUnauthorized, plannersdk.CodeRefreshExpired, "refresh token expired"},
	{service.ErrInvalidResetToken, http.StatusBadRequest, plannersdk.CodeInvalidResetToken, "reset token is invalid or expired"},
	{service.ErrNotProjectAdmin, http.StatusForbidden, plannersdk.CodeNotProjectAdmin, "only project admins can invite"},
	{service.ErrDuplicatePending, http.StatusConflict, plannersdk.CodeDuplicatePending, "a pending invitation already exists for this email"},
	{service.ErrInvitationNotFound, http.StatusNotFound, plannersdk.CodeNotFound, "invitation not found"},
	{service.ErrInvitationNotPending, http.StatusConflict, plannersdk.CodeInvitationNotPending, "invitation is no longer pending"},
	{service.ErrInvitationExpired, http.StatusGone, plannersdk.CodeInvitationExpired, "invitation has expired"},
	{service.ErrInvitationUnauthorized, http.StatusForbidden, plannersdk.CodeForbidden, "invitation is addressed to someone else"},
	{service.ErrNotAMember, http.StatusForbidden, plannersdk.CodeForbidden, "access denied"},
	{service.ErrInsufficientRole, http.StatusForbidden, plannersdk.CodeForbidden, "access denied"},
	{service.ErrProjectNotFound, http.StatusNotFound, plannersdk.CodeNotFound, "project not found"},
	{service.ErrMemberNotFound, http.StatusNotFound, plannersdk.CodeNotFound, "member not found"},
	{service.ErrAdminProtected, http.StatusForbidden, plannersdk.CodeAdminProtected, "admins cannot modify other admins"},
}

// writeServiceError writes the response for err. Unknown errors are logged
// and surface as an opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			httpx.WriteError(w, m.status, m.code, m.desc)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
	httpx.WriteError(w, http.StatusInternalServerError, plannersdk.CodeServerError, "internal error")
}

type validatable interface {
	Validate() error
}

// decodeRequest reads a JSON body into dst and validates it. It writes the
// 400 response itself and reports false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, plannersdk.CodeInvalidRequest, err.Error())
		return false
	}
	if err := dst.Validate(); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            plannersdk.CodeValidation,
			ErrorDescription: "invalid request body",
			Fields:           plannersdk.FieldErrors(err),
		})
		return false
	}
	return true
}
