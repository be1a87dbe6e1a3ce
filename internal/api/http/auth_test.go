package http_test

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
	"testing"

	apihttp "github.com/fastplanner/planner/internal/api/http"
	"github.com/fastplanner/planner/pkg/plannersdk"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLoginRefresh(t *testing.T) {
	s := newServer(t)
	ctx := t.Context()

	sess := s.register(t, "Alice", "Alice@Example.com")
	require.Equal(t, "alice@example.com", sess.User().Email)

	me, err := sess.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alice", me.Name)

	_, err = s.client.Register(ctx, plannersdk.RegisterRequest{Name: "Other", Email: "alice@example.com", Password: "correct horse"})
	requireCode(t, err, http.StatusConflict, plannersdk.CodeEmailTaken)

	login, err := s.client.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	_, refresh := login.Tokens()

	pair, err := s.client.Refresh(ctx, refresh)
	require.NoError(t, err)
	require.NotEqual(t, refresh, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	_, err = s.client.Refresh(ctx, refresh)
	requireCode(t, err, http.StatusNotFound, plannersdk.CodeRefreshNotFound)
}

func TestAuth_LoginFailuresAreUniform(t *testing.T) {
	s := newServer(t)
	s.register(t, "Alice", "alice@example.com")

	_, errWrong := s.client.Login(t.Context(), "alice@example.com", "wrong password")
	_, errUnknown := s.client.Login(t.Context(), "nobody@example.com", "wrong password")

	requireCode(t, errWrong, http.StatusUnauthorized, plannersdk.CodeInvalidCredentials)
	requireCode(t, errUnknown, http.StatusUnauthorized, plannersdk.CodeInvalidCredentials)
	require.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestAuth_Validation(t *testing.T) {
	s := newServer(t)

	_, err := s.client.Register(t.Context(), plannersdk.RegisterRequest{Name: "A", Email: "nope", Password: "short"})
	requireCode(t, err, http.StatusBadRequest, plannersdk.CodeValidation)

	var apiErr *plannersdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Fields, "email")
	require.Contains(t, apiErr.Fields, "password")

	resp, err := http.Post(s.URL+"/v1/auth/login", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth_LogoutAlwaysSucceeds(t *testing.T) {
	s := newServer(t)
	sess := s.register(t, "Alice", "alice@example.com")
	_, refresh := sess.Tokens()

	require.NoError(t, s.client.Logout(t.Context(), refresh))
	require.NoError(t, s.client.Logout(t.Context(), refresh))
	require.NoError(t, s.client.Logout(t.Context(), "never-issued"))

	resp, err := http.Post(s.URL+"/v1/auth/logout", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = s.client.Refresh(t.Context(), refresh)
	requireCode(t, err, http.StatusNotFound, plannersdk.CodeRefreshNotFound)
}

func TestAuth_PasswordReset(t *testing.T) {
	s := newServer(t)
	ctx := t.Context()
	sess := s.register(t, "Alice", "alice@example.com")
	_, oldRefresh := sess.Tokens()

	msg, err := s.client.RecoverPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	other, err := s.client.RecoverPassword(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Equal(t, msg, other)

	s.sessions.Wait()
	sent := s.mail.Sent()
	require.Len(t, sent, 1)
	_, rest, ok := strings.Cut(sent[0].Text, "token=")
	require.True(t, ok)
	raw, _, _ := strings.Cut(rest, "\n")
	token, err := url.QueryUnescape(raw)
	require.NoError(t, err)

	err = s.client.ResetPassword(ctx, "bogus", "brand new password")
	requireCode(t, err, http.StatusBadRequest, plannersdk.CodeInvalidResetToken)

	require.NoError(t, s.client.ResetPassword(ctx, token, "brand new password"))

	_, err = s.client.Refresh(ctx, oldRefresh)
	requireCode(t, err, http.StatusNotFound, plannersdk.CodeRefreshNotFound)

	_, err = s.client.Login(ctx, "alice@example.com", "brand new password")
	require.NoError(t, err)
}

func TestAuth_BearerRequired(t *testing.T) {
	s := newServer(t)

	for _, header := range []string{"", "Bearer", "Bearer not-a-jwt", "Basic abc"} {
		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, s.URL+"/v1/auth/me", nil)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, header)
	}
}

func TestAuth_RateLimited(t *testing.T) {
	limited := newServer(t, func(r *apihttp.Router) {
		r.AuthLimit.RequestsPerWindow = 2
		r.AuthLimit.Burst = 2
	})

	var last error
	for range 3 {
		_, last = limited.client.Login(t.Context(), "nobody@example.com", "whatever it is")
	}
	requireCode(t, last, http.StatusTooManyRequests, plannersdk.CodeRateLimited)
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	live, err := s.client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := s.client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
}
