package http

import (
	"net/http"

	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/pkg/httpx"
	"github.com/fastplanner/planner/pkg/plannersdk"
)

type AuthHandler struct {
	Sessions *service.SessionService
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Create an account and its first session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		plannersdk.RegisterRequest	true	"Registration"
//	@Success		201		{object}	plannersdk.SessionResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"validation_error"
//	@Failure		409		{object}	httpx.ErrorResponse	"email_taken"
//	@Router			/v1/auth/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req plannersdk.RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	sess, err := h.Sessions.Register(r.Context(), service.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
		UserAgent:      r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Open a new session. Unknown email and wrong password give the same answer.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		plannersdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	plannersdk.SessionResponse
//	@Failure		401		{object}	httpx.ErrorResponse	"invalid_credentials"
//	@Router			/v1/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req plannersdk.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	sess, err := h.Sessions.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

// HandleRefresh godoc
//
//	@Summary		Refresh
//	@Description	Redeem a refresh token for a new pair. The presented token is consumed.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		plannersdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	plannersdk.TokenResponse
//	@Failure		401		{object}	httpx.ErrorResponse	"refresh_token_expired"
//	@Failure		404		{object}	httpx.ErrorResponse	"refresh_token_not_found"
//	@Router			/v1/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req plannersdk.RefreshTokenRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	pair, err := h.Sessions.Refresh(r.Context(), req.RefreshToken, r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTokenResponse(pair))
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	End one session. Always succeeds.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		plannersdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	plannersdk.OKResponse
//	@Router			/v1/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req plannersdk.RefreshTokenRequest
	// A malformed body still logs out nothing and succeeds.
	if err := httpx.DecodeJSON(w, r, &req); err == nil {
		h.Sessions.Logout(r.Context(), req.RefreshToken)
	}
	httpx.WriteJSON(w, http.StatusOK, plannersdk.OKResponse{OK: true})
}

// HandleRecoverPassword godoc
//
//	@Summary		Recover password
//	@Description	Email a reset link if the address is registered. The answer is the same either way.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		plannersdk.RecoverPasswordRequest	true	"Email"
//	@Success		200		{object}	plannersdk.MessageResponse
//	@Router			/v1/auth/recover-password [post]
func (h *AuthHandler) HandleRecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req plannersdk.RecoverPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	msg, err := h.Sessions.RecoverPassword(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, plannersdk.MessageResponse{Message: msg})
}

// HandleResetPassword godoc
//
//	@Summary		Reset password
//	@Description	Set a new password with a reset token. Every session of the account ends.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		plannersdk.ResetPasswordRequest	true	"Token and new password"
//	@Success		200		{object}	plannersdk.MessageResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"invalid_reset_token"
//	@Router			/v1/auth/reset-password [post]
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req plannersdk.ResetPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	msg, err := h.Sessions.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, plannersdk.MessageResponse{Message: msg})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	plannersdk.UserResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/auth/me [get]
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFrom(r.Context())

	u, err := h.Sessions.Profile(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
